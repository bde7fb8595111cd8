package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"cropdoc/internal/auth"
	"cropdoc/internal/config"
	"cropdoc/internal/email"
	"cropdoc/internal/lockout"
	"cropdoc/internal/models"
	"cropdoc/internal/otp"
	"cropdoc/internal/ratelimit"
	"cropdoc/internal/repository"
	"cropdoc/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler handles HTTP requests for registration, login and the
// OTP-based password reset flow
type AuthHandler struct {
	userRepo        repository.UserRepository
	credentials     *auth.CredentialStore
	authService     *auth.Service
	otpIssuer       *otp.Issuer
	lockouts        *lockout.Tracker
	auditRepo       repository.AuditLogRepository
	emailService    email.Sender
	config          *config.Config
	registerLimiter *ratelimit.Limiter
	loginLimiter    *ratelimit.Limiter
}

// NewAuthHandler creates a new authentication handler with the given
// dependencies. counters backs the per-email request limiters.
func NewAuthHandler(
	userRepo repository.UserRepository,
	credentials *auth.CredentialStore,
	authService *auth.Service,
	otpIssuer *otp.Issuer,
	lockouts *lockout.Tracker,
	auditRepo repository.AuditLogRepository,
	emailService email.Sender,
	counters ratelimit.CounterStore,
	config *config.Config,
) *AuthHandler {
	return &AuthHandler{
		userRepo:        userRepo,
		credentials:     credentials,
		authService:     authService,
		otpIssuer:       otpIssuer,
		lockouts:        lockouts,
		auditRepo:       auditRepo,
		emailService:    emailService,
		config:          config,
		registerLimiter: ratelimit.NewLimiter(counters, 5, time.Hour),
		loginLimiter:    ratelimit.NewLimiter(counters, 10, time.Minute),
	}
}

// audit records a security event. Failures are logged, never surfaced.
func (h *AuthHandler) audit(c *gin.Context, userID *uuid.UUID, action models.AuditAction, description string) {
	entry := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	}
	if err := h.auditRepo.Create(c.Request.Context(), entry); err != nil {
		log.Printf("Failed to create audit log: %v", err)
	}
}

// retryAfterSeconds converts a wait duration to whole seconds, rounded up
// so a client that waits exactly that long is never early.
func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// RegisterOTP godoc
// @Summary Request a registration code
// @Description Stage a new account and email a one-time verification code. The staged profile is held until the code is verified or expires.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterOTPRequest true "Registration details"
// @Success 200 {object} models.SuccessResponse "Verification code sent"
// @Failure 400 {object} models.ErrorResponse "Invalid request format, weak password, or email already registered"
// @Failure 429 {object} models.ErrorResponse "Too many codes requested"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /register-otp [post]
func (h *AuthHandler) RegisterOTP(c *gin.Context) {
	var req models.RegisterOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailAddr := auth.NormalizeEmail(req.Email)

	res, err := h.registerLimiter.Hit(c.Request.Context(), "register:"+emailAddr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process registration"})
		return
	}
	if !res.Allowed {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:             "too many verification codes requested, please try again later",
			RetryAfterSeconds: retryAfterSeconds(res.RetryAfter),
		})
		return
	}

	if err := validation.ValidatePassword(req.Password, emailAddr); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	// Staging is idempotent per email; only a finished account blocks it.
	if _, err := h.userRepo.GetByEmail(c.Request.Context(), emailAddr); err == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email already registered"})
		return
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process registration"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process registration"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleFarmer
	}

	pending := &models.PendingVerification{
		Email:        emailAddr,
		Purpose:      models.PurposeRegister,
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         role,
		PasswordHash: passwordHash,
	}

	code, err := h.otpIssuer.Issue(c.Request.Context(), pending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process registration"})
		return
	}

	if err := h.emailService.SendOTPEmail(emailAddr, req.Name, code); err != nil {
		log.Printf("Failed to send verification code to %s: %v", emailAddr, err)
	}

	h.audit(c, nil, models.AuditActionRegisterOTP, fmt.Sprintf("Verification code issued for %s", emailAddr))

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "verification code sent"})
}

// VerifyOTP godoc
// @Summary Verify a registration code
// @Description Confirm a staged registration with the emailed code. On success the account is created and a session token is returned.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.VerifyOTPRequest true "Email and code"
// @Success 201 {object} models.AuthResponse "Account created"
// @Failure 400 {object} models.ErrorResponse "Invalid, expired, or exhausted code"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailAddr := auth.NormalizeEmail(req.Email)

	pending, err := h.otpIssuer.Verify(c.Request.Context(), emailAddr, models.PurposeRegister, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNoPending), errors.Is(err, otp.ErrExpired):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "verification code expired or not found"})
		case errors.Is(err, otp.ErrTooManyAttempts):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "too many verification attempts, request a new code"})
		case errors.Is(err, otp.ErrMismatch):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid verification code"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to verify code"})
		}
		return
	}

	user := &models.User{
		Name:          pending.Name,
		Email:         pending.Email,
		Phone:         pending.Phone,
		Role:          pending.Role,
		PasswordHash:  pending.PasswordHash,
		EmailVerified: true,
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create account"})
		return
	}

	if err := h.otpIssuer.Consume(c.Request.Context(), emailAddr, models.PurposeRegister); err != nil {
		// The account exists; the stale record expires on its own.
		log.Printf("Failed to consume pending verification for %s: %v", emailAddr, err)
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate token"})
		return
	}

	h.audit(c, &user.ID, models.AuditActionUserRegistered, fmt.Sprintf("Account created for %s", emailAddr))

	c.JSON(http.StatusCreated, models.AuthResponse{Token: token, User: user.Info()})
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 429 {object} models.ErrorResponse "Account locked or rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailAddr := auth.NormalizeEmail(req.Email)

	res, err := h.loginLimiter.Hit(c.Request.Context(), "login:"+emailAddr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}
	if !res.Allowed {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:             "too many login attempts, please try again later",
			RetryAfterSeconds: retryAfterSeconds(res.RetryAfter),
		})
		return
	}

	// The lock gate comes before any credential work so a locked-out
	// caller learns nothing about the password.
	status, err := h.lockouts.Check(c.Request.Context(), emailAddr, lockout.PurposeLogin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}
	if status.Locked {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:             "account temporarily locked due to too many failed attempts",
			RetryAfterSeconds: retryAfterSeconds(status.RetryAfter),
		})
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Unknown emails burn an attempt too, so probing for accounts
			// costs the same as guessing passwords.
			if _, err := h.lockouts.RecordFailure(c.Request.Context(), emailAddr, lockout.PurposeLogin); err != nil {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
				return
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}

	if err := h.credentials.Verify(c.Request.Context(), user, req.Password); err != nil {
		if errors.Is(err, auth.ErrNoCredential) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "no password set for this account, use the password reset flow"})
			return
		}
		if errors.Is(err, auth.ErrCredentialMismatch) {
			failStatus, err := h.lockouts.RecordFailure(c.Request.Context(), emailAddr, lockout.PurposeLogin)
			if err != nil {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
				return
			}
			if failStatus.Locked {
				h.audit(c, &user.ID, models.AuditActionAccountLocked, fmt.Sprintf("Account %s locked after repeated login failures", emailAddr))
			} else {
				h.audit(c, &user.ID, models.AuditActionLoginFailure, fmt.Sprintf("Failed login for %s", emailAddr))
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}

	// Clear the failure counter before issuing the token so a crash in
	// between can only under-penalize, never leave a ghost lock.
	if err := h.lockouts.RecordSuccess(c.Request.Context(), emailAddr, lockout.PurposeLogin); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process login"})
		return
	}

	if err := h.userRepo.UpdateLastLogin(c.Request.Context(), user.ID, time.Now()); err != nil {
		log.Printf("Failed to update last login for %s: %v", user.ID, err)
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate token"})
		return
	}

	h.audit(c, &user.ID, models.AuditActionLoginSuccess, fmt.Sprintf("User %s logged in", emailAddr))

	c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: user.Info()})
}

// ForgotPassword godoc
// @Summary Request a password reset code
// @Description Email a one-time reset code. Always returns success so the response never reveals whether an account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Account email"
// @Success 200 {object} models.SuccessResponse "Reset code sent if the account exists"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 429 {object} models.ErrorResponse "Too many codes requested"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailAddr := auth.NormalizeEmail(req.Email)

	res, err := h.registerLimiter.Hit(c.Request.Context(), "forgot:"+emailAddr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}
	if !res.Allowed {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:             "too many reset codes requested, please try again later",
			RetryAfterSeconds: retryAfterSeconds(res.RetryAfter),
		})
		return
	}

	genericOK := models.SuccessResponse{Message: "if the email is registered, a reset code has been sent"}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusOK, genericOK)
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}

	pending := &models.PendingVerification{
		Email:   emailAddr,
		Purpose: models.PurposePasswordReset,
		Name:    user.Name,
		Role:    user.Role,
	}

	code, err := h.otpIssuer.Issue(c.Request.Context(), pending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}

	if err := h.emailService.SendOTPEmail(emailAddr, user.Name, code); err != nil {
		log.Printf("Failed to send reset code to %s: %v", emailAddr, err)
	}

	c.JSON(http.StatusOK, genericOK)
}

// ResetPassword godoc
// @Summary Complete a password reset
// @Description Set a new password using the emailed reset code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Email, code, and new password"
// @Success 200 {object} models.SuccessResponse "Password reset successfully"
// @Failure 400 {object} models.ErrorResponse "Invalid code, weak password, or password reuse"
// @Failure 429 {object} models.ErrorResponse "Too many failed codes"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailAddr := auth.NormalizeEmail(req.Email)

	if err := validation.ValidatePassword(req.NewPassword, emailAddr); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	status, err := h.lockouts.Check(c.Request.Context(), emailAddr, lockout.PurposePasswordReset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}
	if status.Locked {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:             "too many failed attempts, please try again later",
			RetryAfterSeconds: retryAfterSeconds(status.RetryAfter),
		})
		return
	}

	_, err = h.otpIssuer.Verify(c.Request.Context(), emailAddr, models.PurposePasswordReset, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrMismatch):
			if _, err := h.lockouts.RecordFailure(c.Request.Context(), emailAddr, lockout.PurposePasswordReset); err != nil {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid reset code"})
		case errors.Is(err, otp.ErrNoPending), errors.Is(err, otp.ErrExpired):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "reset code expired or not found"})
		case errors.Is(err, otp.ErrTooManyAttempts):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "too many attempts, request a new code"})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		}
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), emailAddr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}

	if err := h.lockouts.RecordSuccess(c.Request.Context(), emailAddr, lockout.PurposePasswordReset); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}

	reused, err := h.credentials.WasRecentlyUsed(c.Request.Context(), user, req.NewPassword, h.config.Auth.PasswordHistoryDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process request"})
		return
	}
	if reused {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "new password was recently used, choose a different one"})
		return
	}

	if err := h.credentials.Rotate(c.Request.Context(), user, req.NewPassword, h.config.Auth.PasswordHistoryDepth); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to reset password"})
		return
	}

	if err := h.otpIssuer.Consume(c.Request.Context(), emailAddr, models.PurposePasswordReset); err != nil {
		log.Printf("Failed to consume pending verification for %s: %v", emailAddr, err)
	}

	if err := h.emailService.SendPasswordChangedEmail(emailAddr, user.Name); err != nil {
		log.Printf("Failed to send password changed notification to %s: %v", emailAddr, err)
	}

	h.audit(c, &user.ID, models.AuditActionPasswordReset, fmt.Sprintf("Password reset completed for %s", emailAddr))

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "password reset successfully"})
}
