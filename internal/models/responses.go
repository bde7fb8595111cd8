package models

import "time"

// ErrorResponse represents an error response. RetryAfterSeconds is set
// only on 429 responses so clients can back off precisely.
type ErrorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// AuthResponse is returned after a successful login or OTP confirmation
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// HealthResponse represents the response from the health check endpoint
type HealthResponse struct {
	Status string    `json:"status" example:"healthy"`
	Time   time.Time `json:"time" example:"2026-03-20T13:00:00Z"`
}
