package models

import (
	"time"

	"github.com/google/uuid"
)

// Diagnosis represents one crop-diagnosis history entry. Classification
// and advice are produced by external services; this service only stores
// what the caller submits.
type Diagnosis struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Crop      string    `json:"crop"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Result    *string   `json:"result,omitempty"`
	Advice    *string   `json:"advice,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateDiagnosisRequest represents the request to record a diagnosis
type CreateDiagnosisRequest struct {
	Crop     string  `json:"crop" binding:"required,nospaces,max=100"`
	ImageURL *string `json:"image_url" binding:"omitempty,url"`
	Result   *string `json:"result" binding:"omitempty,max=2000"`
	Advice   *string `json:"advice" binding:"omitempty,max=8000"`
}
