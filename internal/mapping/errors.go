package mapping

import "errors"

// Domain errors for mapping configuration

var (
	// ErrInvalidMapping signals a malformed field mapping or mapping set.
	// Raised during validation, before any batch starts.
	ErrInvalidMapping = errors.New("invalid field mapping")
)
