package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"cropdoc/internal/auth"
	"cropdoc/internal/config"
	"cropdoc/internal/email"
	"cropdoc/internal/lockout"
	"cropdoc/internal/models"
	"cropdoc/internal/repository"
	"cropdoc/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"golang.org/x/crypto/bcrypt"
)

// AccountHandler handles HTTP requests for the authenticated account
type AccountHandler struct {
	credentials  *auth.CredentialStore
	lockouts     *lockout.Tracker
	auditRepo    repository.AuditLogRepository
	emailService email.Sender
	config       *config.Config
}

// NewAccountHandler creates a new account handler with the given dependencies
func NewAccountHandler(
	credentials *auth.CredentialStore,
	lockouts *lockout.Tracker,
	auditRepo repository.AuditLogRepository,
	emailService email.Sender,
	config *config.Config,
) *AccountHandler {
	return &AccountHandler{
		credentials:  credentials,
		lockouts:     lockouts,
		auditRepo:    auditRepo,
		emailService: emailService,
		config:       config,
	}
}

// GetAccount godoc
// @Summary Get current account
// @Description Return the authenticated user's profile
// @Tags account
// @Produce json
// @Success 200 {object} models.UserInfo
// @Failure 401 {object} models.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /account [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user.Info())
}

// ChangePassword godoc
// @Summary Change password
// @Description Change the authenticated user's password after verifying the current one. The new password must differ from the current one and from recently used ones.
// @Tags account
// @Accept json
// @Produce json
// @Param request body models.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} models.SuccessResponse "Password changed successfully"
// @Failure 400 {object} models.ErrorResponse "Weak password, same as current, or recently used"
// @Failure 401 {object} models.ErrorResponse "Old password incorrect"
// @Failure 429 {object} models.ErrorResponse "Too many failed attempts"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /account/change-password [post]
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "not authenticated"})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	lockoutKey := user.ID.String()

	status, err := h.lockouts.Check(c.Request.Context(), lockoutKey, lockout.PurposePasswordChange)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to change password"})
		return
	}
	if status.Locked {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:             "too many failed attempts, please try again later",
			RetryAfterSeconds: retryAfterSeconds(status.RetryAfter),
		})
		return
	}

	// An identical pair can never succeed, so it is rejected before any
	// credential comparison and costs no lockout attempt.
	if req.OldPassword == req.NewPassword {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "new password must be different from old password"})
		return
	}

	if err := validation.ValidatePassword(req.NewPassword, user.Email); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.credentials.Verify(c.Request.Context(), user, req.OldPassword); err != nil {
		if errors.Is(err, auth.ErrNoCredential) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no password set for this account, use the password reset flow"})
			return
		}
		if errors.Is(err, auth.ErrCredentialMismatch) {
			if _, err := h.lockouts.RecordFailure(c.Request.Context(), lockoutKey, lockout.PurposePasswordChange); err != nil {
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to change password"})
				return
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "old password is incorrect"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to change password"})
		return
	}

	if err := h.lockouts.RecordSuccess(c.Request.Context(), lockoutKey, lockout.PurposePasswordChange); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to change password"})
		return
	}

	// Verify may have upgraded a legacy hash, so compare against the
	// refreshed current hash, then against retired ones.
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.NewPassword)) == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "new password must be different from current password"})
		return
	}

	reused, err := h.credentials.WasRecentlyUsed(c.Request.Context(), user, req.NewPassword, h.config.Auth.PasswordHistoryDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to change password"})
		return
	}
	if reused {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "new password was recently used, choose a different one"})
		return
	}

	if err := h.credentials.Rotate(c.Request.Context(), user, req.NewPassword, h.config.Auth.PasswordHistoryDepth); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to change password"})
		return
	}

	if err := h.emailService.SendPasswordChangedEmail(user.Email, user.Name); err != nil {
		log.Printf("Failed to send password changed notification to %s: %v", user.Email, err)
	}

	h.audit(c, user.ID)

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "password changed successfully"})
}

func (h *AccountHandler) audit(c *gin.Context, userID uuid.UUID) {
	entry := &models.AuditLog{
		UserID:      &userID,
		Action:      models.AuditActionPasswordChange,
		Description: fmt.Sprintf("Password changed for user %s", userID),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	}
	if err := h.auditRepo.Create(c.Request.Context(), entry); err != nil {
		log.Printf("Failed to create audit log: %v", err)
	}
}
