package services

import "errors"

var (
	// ErrDuplicateUsername is returned when registering a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials is deliberately the same for unknown users and
	// wrong passwords.
	ErrInvalidCredentials = errors.New("username or password incorrect")
	// ErrNotFound is returned when a job listing does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation wraps input that fails boundary checks.
	ErrValidation = errors.New("validation failed")
)
