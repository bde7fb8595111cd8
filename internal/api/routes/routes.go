// Package routes handles the setup and configuration of API routes
package routes

import (
	"database/sql"
	"time"

	_ "cropdoc/docs" // Import swagger docs
	"cropdoc/internal/api/handlers"
	"cropdoc/internal/api/middleware"
	"cropdoc/internal/auth"
	"cropdoc/internal/config"
	"cropdoc/internal/email"
	"cropdoc/internal/lockout"
	"cropdoc/internal/otp"
	"cropdoc/internal/ratelimit"
	"cropdoc/internal/repository"
	"cropdoc/internal/repository/postgres"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps bundles the stores and services the router wires together. Handlers
// depend on interfaces only, so tests swap in in-memory implementations.
type Deps struct {
	Config       *config.Config
	DB           *sql.DB
	Users        repository.UserRepository
	History      repository.PasswordHistoryRepository
	Pending      repository.PendingVerificationRepository
	Complaints   repository.ComplaintRepository
	Diagnoses    repository.DiagnosisRepository
	Audit        repository.AuditLogRepository
	LockoutStore lockout.Store
	RateStore    ratelimit.CounterStore
	Email        email.Sender
}

// NewPostgres builds a router over PostgreSQL-backed repositories.
// Lockout state is shared across replicas through the database; the
// request counters are process-local.
func NewPostgres(cfg *config.Config, db *sql.DB) *gin.Engine {
	return New(Deps{
		Config:       cfg,
		DB:           db,
		Users:        postgres.NewUserRepository(db),
		History:      postgres.NewPasswordHistoryRepository(db),
		Pending:      postgres.NewPendingVerificationRepository(db),
		Complaints:   postgres.NewComplaintRepository(db),
		Diagnoses:    postgres.NewDiagnosisRepository(db),
		Audit:        postgres.NewAuditLogRepository(db),
		LockoutStore: postgres.NewLockoutStore(db),
		RateStore:    ratelimit.NewMemoryStore(),
		Email:        email.NewService(cfg.Email),
	})
}

// New configures all API routes and their handlers
func New(deps Deps) *gin.Engine {
	cfg := deps.Config

	r := gin.Default()

	r.Use(middleware.Compression())

	healthHandler := handlers.NewHealthHandler(deps.DB)

	// Routes without rate limiting
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Apply rate limiting to all other routes
	r.Use(middleware.NewRateLimiter(cfg).Middleware())

	// Initialize services
	authService := auth.NewService(cfg)
	credentials := auth.NewCredentialStore(deps.Users, deps.History)
	otpIssuer := otp.NewIssuer(deps.Pending, cfg.Auth.OTPTTL, cfg.Auth.OTPMaxAttempts)
	lockouts := lockout.NewTracker(deps.LockoutStore, cfg.Auth.MaxFailedAttempts, cfg.Auth.LockoutDuration)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, deps.Users)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(
		deps.Users,
		credentials,
		authService,
		otpIssuer,
		lockouts,
		deps.Audit,
		deps.Email,
		deps.RateStore,
		cfg,
	)
	accountHandler := handlers.NewAccountHandler(credentials, lockouts, deps.Audit, deps.Email, cfg)
	complaintHandler := handlers.NewComplaintHandler(deps.Complaints)
	diagnosisHandler := handlers.NewDiagnosisHandler(deps.Diagnoses)

	// Health check (no authentication required)
	r.GET("/health", healthHandler.Health)

	// Auth routes
	r.POST("/register-otp", authHandler.RegisterOTP)
	r.POST("/verify-otp", authHandler.VerifyOTP)
	r.POST("/login", authHandler.Login)
	r.POST("/forgot-password", authHandler.ForgotPassword)
	r.POST("/reset-password", authHandler.ResetPassword)

	// Account routes (requires authentication)
	account := r.Group("/account")
	account.Use(authMiddleware.AuthRequired())
	{
		account.GET("", accountHandler.GetAccount)
		account.POST("/change-password", accountHandler.ChangePassword)
	}

	// Complaint routes (requires authentication)
	complaints := r.Group("/complaints")
	complaints.Use(authMiddleware.AuthRequired())
	{
		complaintLimiter := ratelimit.NewLimiter(deps.RateStore, 5, time.Hour)
		complaints.POST("", middleware.RateLimit(complaintLimiter, middleware.KeyByUser), complaintHandler.Create)
		complaints.GET("", complaintHandler.List)
	}

	// Diagnosis routes (requires authentication)
	diagnoses := r.Group("/diagnoses")
	diagnoses.Use(authMiddleware.AuthRequired())
	{
		diagnosisLimiter := ratelimit.NewLimiter(deps.RateStore, 10, time.Minute)
		diagnoses.POST("", middleware.RateLimit(diagnosisLimiter, middleware.KeyByClientIP), diagnosisHandler.Create)
		diagnoses.GET("", diagnosisHandler.List)
	}

	return r
}
