package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError marks input rejected before any computation ran. Handlers
// map it to 400, distinct from not-found (404) and internal failures (500).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func NewValidationError(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
