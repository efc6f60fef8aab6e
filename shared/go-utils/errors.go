// shared/go-utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrBinNotFound    = errors.New("bin_not_found")
	ErrBinIDImmutable = errors.New("bin_id_immutable")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For external service failures (e.g., Twilio, SendGrid, IP lookup)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// ValidationError is a user-correctable, field-scoped failure.
// Fields maps a json field path (e.g. "contact.phone") to a message.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
	return e
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns nil when nothing was recorded so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PersistenceError wraps a store failure. The caller may retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	var valErr *ValidationError
	var persistErr *PersistenceError
	switch {
	case errors.As(err, &appErr):
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	case errors.As(err, &valErr):
		RespondErrorWithCode(w, http.StatusBadRequest, ErrCodeValidation, "Validation failed", valErr.Fields, err)
	case errors.Is(err, ErrBinNotFound):
		RespondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Bin not found", nil, err)
	case errors.Is(err, ErrRowVersionConflict):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeRowVersionConflict, "Bin was modified concurrently, retry", nil, err)
	case errors.Is(err, ErrExternalServiceFailure):
		RespondErrorWithCode(w, http.StatusBadGateway, ErrCodeExternalServiceFailure, "Upstream service failed", nil, err)
	case errors.As(err, &persistErr):
		RespondErrorWithCode(w, http.StatusServiceUnavailable, ErrCodePersistenceFailure, "Storage unavailable, please retry", nil, err)
	default:
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
