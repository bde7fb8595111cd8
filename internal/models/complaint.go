package models

import (
	"time"

	"github.com/google/uuid"
)

// Complaint statuses
const (
	ComplaintStatusOpen     = "open"
	ComplaintStatusResolved = "resolved"
)

// Complaint represents a help ticket filed by a user
type Complaint struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateComplaintRequest represents the request to file a help ticket
type CreateComplaintRequest struct {
	Subject string `json:"subject" binding:"required,nospaces,max=200"`
	Message string `json:"message" binding:"required,nospaces,max=4000"`
}
