package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := &Config{}
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "8080", cfg.API.Port)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenLifetime)
	assert.Equal(t, 5, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 5, cfg.Auth.OTPMaxAttempts)
	assert.Equal(t, 5, cfg.Auth.PasswordHistoryDepth)
	assert.Equal(t, 1000, cfg.RateLimit.Requests)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("JWT_EXPIRES_IN", "45m")
	t.Setenv("LOGIN_MAX_FAILED_ATTEMPTS", "3")
	t.Setenv("LOGIN_LOCKOUT_MINUTES", "30")
	t.Setenv("OTP_TTL_MINUTES", "5")

	cfg := &Config{}
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 45*time.Minute, cfg.Auth.TokenLifetime)
	assert.Equal(t, 3, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
}

func TestLoadFromEnv_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := &Config{}
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadFromEnv_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")

	cfg := &Config{}
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenLifetime)
}
