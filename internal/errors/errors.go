package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Error codes
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeInvalidQuality = "INVALID_QUALITY"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeSessionFull    = "SESSION_FULL"
	ErrCodeNotDue         = "NOT_DUE"
	ErrCodePersistence    = "PERSISTENCE_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// Process exit codes reported by the CLI for each class of error.
const (
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitStore    = 5
	ExitInternal = 1
)

// AppError represents an application error with a code and the exit status the CLI reports for it
type AppError struct {
	Code     string // Error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message  string // Human-readable error message
	ExitCode int    // Process exit status
	Err      error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts an AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found: %v", resource, id),
		ExitCode: ExitNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("validation failed for %s: %s", field, reason),
		ExitCode: ExitUsage,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeBadRequest,
		Message:  message,
		ExitCode: ExitUsage,
	}
}

// NewInvalidQualityError reports a quality rating outside 0..5. Nothing was
// written; the caller should ask again.
func NewInvalidQualityError(err error) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidQuality,
		Message:  "quality must be between 0 (blackout) and 5 (perfect)",
		ExitCode: ExitUsage,
		Err:      err,
	}
}

// NewForbiddenError creates a new FORBIDDEN error
func NewForbiddenError(action string) *AppError {
	return &AppError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("not allowed to %s", action),
		ExitCode: ExitUsage,
	}
}

// NewConflictError creates a new CONFLICT error
func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Code:     ErrCodeConflict,
		Message:  message,
		ExitCode: ExitConflict,
		Err:      err,
	}
}

// NewSessionFullError creates a new SESSION_FULL error
func NewSessionFullError(sessionID int64, capacity int) *AppError {
	return &AppError{
		Code:     ErrCodeSessionFull,
		Message:  fmt.Sprintf("session %d is full (capacity %d)", sessionID, capacity),
		ExitCode: ExitConflict,
	}
}

// NewNotDueError rejects a review submitted before the card's next review date.
func NewNotDueError(flashcardID int64, next time.Time) *AppError {
	return &AppError{
		Code:     ErrCodeNotDue,
		Message:  fmt.Sprintf("flashcard %d is not due until %s", flashcardID, next.Format(time.RFC3339)),
		ExitCode: ExitConflict,
	}
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(err error) *AppError {
	return &AppError{
		Code:     ErrCodePersistence,
		Message:  "storage error",
		ExitCode: ExitStore,
		Err:      err,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:     ErrCodeInternal,
		Message:  "internal error",
		ExitCode: ExitInternal,
		Err:      err,
	}
}
