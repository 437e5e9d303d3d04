package calibrate

import "errors"

var (
	// ErrAccess is returned for a get on a set-only parameter or a set on
	// a get-only one.
	ErrAccess = errors.New("operation not allowed by parameter access")

	// ErrValueRequired is returned for a set without a value on a
	// parameter that is not set-only.
	ErrValueRequired = errors.New("value required")
)
