package schema

import "errors"

var (
	// ErrConfiguration is returned when no candidate file yields a schema.
	ErrConfiguration = errors.New("no valid parameter schema found")

	// ErrShape is returned for a document that is not a schema mapping.
	ErrShape = errors.New("unrecognized schema shape")
)
