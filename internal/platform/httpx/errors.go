// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/veritas-sms/veritas-sms/internal/shared"
)

// Sentinel errors for request-shape failures raised at the edge.
var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate entry")
)

// Stable machine codes carried in problem responses.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeOwnerKeyRequired   = "OWNER_KEY_REQUIRED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// Credential failures deliberately share one generic message whether or
// not the identifier exists; only the owner license-key soft-fail is
// structurally distinguishable, via its code member.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrOwnerKeyRequired):
		ProblemCode(w, http.StatusUnauthorized, CodeOwnerKeyRequired, "License Key Required", "a license key is required to complete this login")
	case errors.Is(err, shared.ErrInvalidCredentials):
		ProblemCode(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid Credentials", "the identifier or password is incorrect")
	case errors.Is(err, shared.ErrUnauthorized):
		ProblemCode(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized", "")
	case errors.Is(err, shared.ErrForbidden):
		ProblemCode(w, http.StatusForbidden, CodeForbidden, "Forbidden", "")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		ProblemCode(w, http.StatusConflict, CodeConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		ProblemCode(w, http.StatusBadRequest, CodeValidation, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
