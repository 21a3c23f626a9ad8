package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOwnerKeyRequired signals the owner two-phase login soft outcome.
	ErrOwnerKeyRequired = errors.New("owner license key required")
	// ErrUnauthorized indicates a missing, invalid or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an RBAC denial.
	ErrForbidden = errors.New("forbidden")
)
