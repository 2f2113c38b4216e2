package pipespec

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// DefinitionError reports an invalid pipeline definition.
type DefinitionError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DefinitionError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "definition"
	if path := errors.Path(first); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	msg := first.Error()
	if len(errs) > 1 {
		msg = fmt.Sprintf("%s (and %d more errors)", msg, len(errs)-1)
	}

	de := &DefinitionError{Field: field, Message: msg}
	if positions := errors.Positions(first); len(positions) > 0 {
		de.Pos = positions[0]
	}
	return de
}
