package repository

import "errors"

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")

	// Pending verification errors
	ErrPendingNotFound = errors.New("pending verification not found")

	// Content errors
	ErrComplaintNotFound = errors.New("complaint not found")
	ErrDiagnosisNotFound = errors.New("diagnosis not found")
)
