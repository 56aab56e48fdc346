package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ipede/oauth-grant-service/internal/domain"
)

// OAuth error codes defined by RFC 6749 §5.2
const (
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidClient        = "invalid_client"
	ErrCodeInvalidGrant         = "invalid_grant"
	ErrCodeInvalidScope         = "invalid_scope"
	ErrCodeUnauthorizedClient   = "unauthorized_client"
	ErrCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrCodeServerError          = "server_error"
)

// OAuthErrorResponse is the error body shape of the token endpoint
type OAuthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RespondWithOAuthError sends an RFC 6749 error response
func RespondWithOAuthError(w http.ResponseWriter, code, description string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(OAuthErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// MapDomainError translates a domain error into its protocol error code and
// HTTP status. Every taxonomy kind keeps a distinct mapping so callers can
// react precisely; only unknown errors collapse into server_error.
func MapDomainError(err error) (string, string, int) {
	switch {
	case errors.Is(err, domain.ErrClientNotFound),
		errors.Is(err, domain.ErrInvalidClientSecret):
		return ErrCodeInvalidClient, "client authentication failed", http.StatusUnauthorized
	case errors.Is(err, domain.ErrClientDisabled):
		return ErrCodeUnauthorizedClient, "client is disabled", http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidGrant):
		return ErrCodeInvalidGrant, "grant is invalid, expired, or already used", http.StatusBadRequest
	case errors.Is(err, domain.ErrRedirectURIMismatch):
		return ErrCodeInvalidGrant, "redirect URI does not match", http.StatusBadRequest
	case errors.Is(err, domain.ErrScopeNotAllowed):
		return ErrCodeInvalidScope, "requested scope exceeds client registration", http.StatusBadRequest
	case errors.Is(err, domain.ErrTokenExpired):
		return ErrCodeInvalidGrant, "token expired", http.StatusUnauthorized
	case errors.Is(err, domain.ErrTokenNotFound):
		return ErrCodeInvalidGrant, "token not found", http.StatusUnauthorized
	default:
		return ErrCodeServerError, "internal server error", http.StatusInternalServerError
	}
}

// ErrorResponse represents the standard error response structure of the
// client management API
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents a validation error detail
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error codes of the client management API
const (
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeConflict   = "ERR_CONFLICT"
	ErrCodeInternal   = "ERR_INTERNAL"
)

// RespondWithError sends a standardized error response
func RespondWithError(w http.ResponseWriter, code string, message string, details []ErrorDetail, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ValidationErrors collects field-level validation failures
type ValidationErrors []ErrorDetail

// Add adds a validation error to the slice
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ErrorDetail{Field: field, Message: message})
}

// HasErrors returns true if there are any validation errors
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}
