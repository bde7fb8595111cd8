package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// API contains API server configuration
	API APIConfig
	// Auth contains authentication and account-security configuration
	Auth AuthConfig
	// Database contains database configuration
	Database DatabaseConfig
	// Email contains email service configuration
	Email EmailConfig

	// RateLimit configures the global per-IP limiter
	RateLimit RateLimitConfig
}

// APIConfig contains API server settings
type APIConfig struct {
	// Port is the server port to listen on
	Port string
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// JWTSecret is the secret key used to sign session tokens
	JWTSecret string
	// TokenLifetime is how long an issued session token stays valid
	TokenLifetime time.Duration
	// MaxFailedAttempts is the number of consecutive failures before lockout
	MaxFailedAttempts int
	// LockoutDuration is how long a tripped lockout lasts
	LockoutDuration time.Duration
	// OTPTTL is how long an issued one-time code stays valid
	OTPTTL time.Duration
	// OTPMaxAttempts caps verification attempts per pending record
	OTPMaxAttempts int
	// PasswordHistoryDepth is how many retired hashes are checked for reuse
	PasswordHistoryDepth int
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// EmailConfig contains email service settings
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromAddress  string
	AppName      string
}

// RateLimitConfig configures the global token-bucket limiter applied per
// client IP. The per-route fixed-window limits are configured in code.
type RateLimitConfig struct {
	Requests int // requests allowed per window
	Window   int // window in seconds
	Burst    int // maximum burst size
}

// LoadFromEnv retrieves configuration from environment variables
func (c *Config) LoadFromEnv() error {
	c.API = APIConfig{
		Port: getEnvOrDefault("API_PORT", "8080"),
	}
	c.Database = DatabaseConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvAsInt("DB_PORT", 5432),
		User:           getEnvOrDefault("DB_USER", "postgres"),
		Password:       getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:         getEnvOrDefault("DB_NAME", "cropdoc"),
		SSLMode:        getEnvOrDefault("DB_SSL_MODE", "disable"),
		MigrationsPath: getEnvOrDefault("DB_MIGRATIONS_PATH", "migrations"),
	}
	c.Auth = AuthConfig{
		JWTSecret:            os.Getenv("JWT_SECRET"),
		TokenLifetime:        getEnvAsDuration("JWT_EXPIRES_IN", 2*time.Hour),
		MaxFailedAttempts:    getEnvAsInt("LOGIN_MAX_FAILED_ATTEMPTS", 5),
		LockoutDuration:      time.Duration(getEnvAsInt("LOGIN_LOCKOUT_MINUTES", 15)) * time.Minute,
		OTPTTL:               time.Duration(getEnvAsInt("OTP_TTL_MINUTES", 10)) * time.Minute,
		OTPMaxAttempts:       getEnvAsInt("OTP_MAX_ATTEMPTS", 5),
		PasswordHistoryDepth: getEnvAsInt("PASSWORD_HISTORY_DEPTH", 5),
	}
	c.Email = EmailConfig{
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromAddress:  os.Getenv("SMTP_FROM"),
		AppName:      getEnvOrDefault("APP_NAME", "CropDoc"),
	}
	c.RateLimit = RateLimitConfig{
		Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 1000),
		Window:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		Burst:    getEnvAsInt("RATE_LIMIT_BURST", 50),
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	return nil
}

// getEnvAsInt retrieves an environment variable and converts it to an integer
func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvAsDuration retrieves an environment variable in time.ParseDuration
// format (e.g. "2h", "30m")
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
