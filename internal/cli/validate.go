package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/params"
	"github.com/roach88/provtrack/internal/pipeline"
	"github.com/roach88/provtrack/internal/pipespec"
	"github.com/roach88/provtrack/internal/schema"
)

// StepSummary is one step of a validated definition.
type StepSummary struct {
	Name  string        `json:"name"`
	Type  string        `json:"type"`
	Tag   string        `json:"tag,omitempty"`
	Steps []StepSummary `json:"steps,omitempty"`
}

// ValidationResult is what validate reports for a valid definition.
type ValidationResult struct {
	Name            string                  `json:"name"`
	Valid           bool                    `json:"valid"`
	Steps           []StepSummary           `json:"steps"`
	HyperParameters []schema.HyperParameter `json:"hyperparameters"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definition>",
		Short: "Validate a pipeline definition",
		Long: `Validate a pipeline definition without fitting it.

The definition is checked against the definition schema, every step is
instantiated, and the flattened hyperparameters that a fit would record
are printed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	def, err := pipespec.Load(path)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalidDefinition, "invalid definition", err)
	}
	f.VerboseLog("Parsed %s: %d top-level step(s)", path, len(def.Steps))

	p, err := def.Build()
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalidDefinition, "failed to build pipeline", err)
	}
	if err := pipeline.Validate(p, false); err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalidDefinition, "pipeline cannot be fitted", err)
	}
	hps, err := params.Extract(p)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalidDefinition, "unsupported parameter", err)
	}

	result := ValidationResult{
		Name:            def.Name,
		Valid:           true,
		Steps:           summarizeSteps(def.Steps),
		HyperParameters: hps,
	}
	if f.IsJSON() {
		return f.Success(result)
	}
	writeValidation(f.Writer, result)
	return nil
}

func summarizeSteps(steps []pipespec.Step) []StepSummary {
	out := make([]StepSummary, len(steps))
	for i, s := range steps {
		out[i] = StepSummary{Name: s.Name, Type: s.Type, Tag: s.Tag}
		if len(s.Steps) > 0 {
			out[i].Type = pipeline.TypeName
			out[i].Steps = summarizeSteps(s.Steps)
		}
	}
	return out
}

func writeValidation(w io.Writer, r ValidationResult) {
	fmt.Fprintf(w, "✓ Definition %q is valid\n", r.Name)
	fmt.Fprintln(w, "\nSteps:")
	writeSteps(w, r.Steps, 1)
	fmt.Fprintln(w, "\nHyperparameters:")
	writeHyperParameters(w, r.HyperParameters, "  ")
}

func writeSteps(w io.Writer, steps []StepSummary, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range steps {
		fmt.Fprintf(w, "%s%s: %s%s\n", indent, s.Name, s.Type, formatTag(s.Tag))
		writeSteps(w, s.Steps, depth+1)
	}
}
