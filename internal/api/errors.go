package api

import (
	"net/http"

	"github.com/johnwards/backoffice/internal/payload"
)

// Error categories.
const (
	CategoryValidationError  = "VALIDATION_ERROR"
	CategoryObjectNotFound   = "OBJECT_NOT_FOUND"
	CategoryPersistenceError = "PERSISTENCE_ERROR"
	CategoryUnauthorized     = "UNAUTHORIZED"
	CategoryInternalError    = "INTERNAL_ERROR"
)

// Error is the JSON error envelope. Fields carries per-field validation
// messages in schema declaration order.
type Error struct {
	Status        string              `json:"status"`
	Message       string              `json:"message"`
	CorrelationID string              `json:"correlationId"`
	Category      string              `json:"category"`
	Fields        payload.FieldErrors `json:"fields,omitempty"`
}

// NewNotFoundError creates a 404 error with the OBJECT_NOT_FOUND category.
func NewNotFoundError(message, correlationID string) *Error {
	return &Error{
		Status:        "error",
		Message:       message,
		CorrelationID: correlationID,
		Category:      CategoryObjectNotFound,
	}
}

// NewValidationError creates a 422 error with the VALIDATION_ERROR category.
func NewValidationError(message, correlationID string, fields payload.FieldErrors) *Error {
	return &Error{
		Status:        "error",
		Message:       message,
		CorrelationID: correlationID,
		Category:      CategoryValidationError,
		Fields:        fields,
	}
}

// NewPersistenceError creates a 500 error carrying only an opaque form-level
// message.
func NewPersistenceError(message, correlationID string) *Error {
	return &Error{
		Status:        "error",
		Message:       message,
		CorrelationID: correlationID,
		Category:      CategoryPersistenceError,
	}
}

// NewInternalError creates a 500 error with the INTERNAL_ERROR category.
func NewInternalError(correlationID string) *Error {
	return &Error{
		Status:        "error",
		Message:       "Internal Server Error",
		CorrelationID: correlationID,
		Category:      CategoryInternalError,
	}
}

// WriteError writes an Error as a JSON response with the given HTTP status code.
func WriteError(w http.ResponseWriter, statusCode int, apiErr *Error) {
	WriteJSON(w, statusCode, apiErr)
}
