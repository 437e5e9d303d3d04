package device

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a module has no known shell path.
	// Nothing is written to the link.
	ErrConfiguration = errors.New("configuration error")

	// ErrOffline is returned when no open link is attached. Nothing is
	// written; the reply text still describes the condition.
	ErrOffline = errors.New("no serial link attached")
)

// ConfigurationError names the module that could not be resolved.
type ConfigurationError struct {
	Module string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown path for module %q", e.Module)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// ErrInvalidWindow is returned by ConfigBuilder.Build when a drain
// window has no idle period or a cap shorter than it.
var ErrInvalidWindow = errors.New("invalid drain window")
