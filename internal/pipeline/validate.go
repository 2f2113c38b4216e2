package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/provtrack/internal/estimator"
)

// SchemaError reports a step that lacks a capability its position needs.
type SchemaError struct {
	// Step is the qualified step name.
	Step string
	// Missing is the absent capability, such as "transform".
	Missing string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("step %q lacks %s capability", e.Step, e.Missing)
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// Validate checks that every step that must transform can. Non-final steps
// always transform; the final step does when transformLast is set. Nested
// pipelines are checked recursively with their own position applied.
func Validate(p *Pipeline, transformLast bool) error {
	return validate(p, transformLast, "")
}

func validate(p *Pipeline, transformLast bool, prefix string) error {
	for i, s := range p.steps {
		name := prefix + s.Name
		needTransform := i < len(p.steps)-1 || transformLast
		if inner, ok := s.Estimator.(*Pipeline); ok {
			if err := validate(inner, needTransform, name+"__"); err != nil {
				return err
			}
			continue
		}
		if needTransform && !estimator.IsTransformer(s.Estimator) {
			return &SchemaError{Step: name, Missing: "transform"}
		}
	}
	return nil
}
