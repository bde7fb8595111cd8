package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of security event recorded
type AuditAction string

const (
	AuditActionRegisterOTP    AuditAction = "register_otp"
	AuditActionUserRegistered AuditAction = "user_registered"
	AuditActionLoginSuccess   AuditAction = "login_success"
	AuditActionLoginFailure   AuditAction = "login_failure"
	AuditActionAccountLocked  AuditAction = "account_locked"
	AuditActionPasswordChange AuditAction = "password_changed"
	AuditActionPasswordReset  AuditAction = "password_reset"
)

// AuditLog represents a record of a security-relevant event. Writes are
// best-effort: a failed audit insert never fails the request it describes.
type AuditLog struct {
	ID          uuid.UUID   `json:"id"`
	UserID      *uuid.UUID  `json:"user_id,omitempty"` // nil when no account is involved yet
	Action      AuditAction `json:"action"`
	Description string      `json:"description"`
	IPAddress   string      `json:"ip_address"`
	UserAgent   string      `json:"user_agent"`
	CreatedAt   time.Time   `json:"created_at"`
}
