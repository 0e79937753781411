package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was hit.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput wraps request data that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the entity is not in a state that allows the operation.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates missing or bad credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCacheMiss is returned by caches when a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// ValidationError collects field errors. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return "invalid input: " + e.Fields[0].Error()
	}
	return "invalid input"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError is a shorthand for a single-field ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
