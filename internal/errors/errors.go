package errors

import (
	"net/http"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Authentication errors (401xx)
	ErrInvalidCredentials ErrorCode = "40101"
	ErrTokenExpired       ErrorCode = "40102"

	// Authorization errors (403xx)
	ErrForbidden ErrorCode = "40301"

	// Resource errors (404xx)
	ErrRequestNotFound  ErrorCode = "40401"
	ErrTemplateNotFound ErrorCode = "40402"
	ErrNoReviewsFound   ErrorCode = "40403"

	// Request errors (400xx)
	ErrInvalidRequest    ErrorCode = "40001"
	ErrValidationFailed  ErrorCode = "40002"
	ErrReconnectRequired ErrorCode = "40003"
	ErrInvalidToken      ErrorCode = "40004"

	// Conflict errors (409xx)
	ErrDuplicate ErrorCode = "40901"

	// Server/upstream errors (500xx, 502xx)
	ErrInternalServer      ErrorCode = "50001"
	ErrMailRelayFailure    ErrorCode = "50201"
	ErrPlatformAPIFailure  ErrorCode = "50202"
	ErrUpstreamUnavailable ErrorCode = "50301"
)

// APIError represents a standardized API error
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse represents the error response format
type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id"`
}

// Common errors
var (
	ErrInvalidCredentialsError = &APIError{
		Code:       ErrInvalidCredentials,
		Message:    "Authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpiredError = &APIError{
		Code:       ErrTokenExpired,
		Message:    "Token has expired",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbiddenError = &APIError{
		Code:       ErrForbidden,
		Message:    "Access denied",
		HTTPStatus: http.StatusForbidden,
	}

	ErrRequestNotFoundError = &APIError{
		Code:       ErrRequestNotFound,
		Message:    "Review request not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrTemplateNotFoundError = &APIError{
		Code:       ErrTemplateNotFound,
		Message:    "Template not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrNoReviewsFoundError = &APIError{
		Code:       ErrNoReviewsFound,
		Message:    "No reviews found for this place",
		HTTPStatus: http.StatusNotFound,
	}

	ErrInvalidTrackingTokenError = &APIError{
		Code:       ErrInvalidToken,
		Message:    "Invalid token or link expired",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrReconnectRequiredError = &APIError{
		Code:       ErrReconnectRequired,
		Message:    "Google account connection has expired. Please reconnect your account.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInternalServerError = &APIError{
		Code:       ErrInternalServer,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrMailRelayFailureError = &APIError{
		Code:       ErrMailRelayFailure,
		Message:    "Failed to send email",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrPlatformAPIFailureError = &APIError{
		Code:       ErrPlatformAPIFailure,
		Message:    "External review platform request failed",
		HTTPStatus: http.StatusBadGateway,
	}
)

// NewValidationError creates a validation error with details
func NewValidationError(details any) *APIError {
	return &APIError{
		Code:       ErrValidationFailed,
		Message:    "Validation failed",
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:       ErrInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Code:       ErrDuplicate,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}
