package params

import (
	"errors"
	"fmt"
)

// ConfigError reports a parameter whose value cannot be introspected.
type ConfigError struct {
	// Param is the qualified parameter name.
	Param string
	// Type is the Go type of the offending value.
	Type string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("parameter %q: unsupported value type %s", e.Param, e.Type)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
