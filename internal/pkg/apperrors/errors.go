package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrUnauthorized  = errors.New("authentication required")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Matching errors
var (
	// ErrInvalidTransition is returned when the current status has no edge for the attempted event
	// or a transition guard fails.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyApplied is returned when another applicant already holds the slot.
	ErrAlreadyApplied = errors.New("coffee chat already applied")
	// ErrStaleRecord is returned by stores when a compare-and-swap write lost to a concurrent writer.
	ErrStaleRecord = errors.New("record was modified concurrently")
)

// Coffee chat errors
var (
	ErrCoffeeChatNotFound     = NewCustomError(ErrResourceNotFound, "coffee chat not found").WithCode("NOT_FOUND_COFFEECHAT")
	ErrCoffeeChatNotDeletable = NewCustomError(ErrConflict, "coffee chat cannot be deleted in its current status").WithCode("CONFLICT_DELETE_COFFEECHAT")
)

// Member errors
var (
	ErrMemberNotFound      = NewCustomError(ErrResourceNotFound, "member not found").WithCode("NOT_FOUND_MEMBER")
	ErrJobCategoryNotFound = NewCustomError(ErrResourceNotFound, "job category not found").WithCode("NOT_FOUND_JOB_CATEGORY")
)

// Batch errors
var (
	ErrJobNotFound       = errors.New("batch job not registered")
	ErrJobAlreadyRunning = errors.New("batch job already running")
)

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError creates a new custom error for invalid input with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

