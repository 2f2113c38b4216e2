package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/codec"
	"github.com/roach88/provtrack/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	CBOR     bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <event-key>",
		Short: "Print one synced event tree",
		Long: `Print a synced event with every stage, data frame and assigned id.

With --cbor the event is printed in CBOR diagnostic notation, the form
binary backends store it in.

Examples:
  provtrack show --db ./provtrack.db 01928c7e-8b1f-7000-8000-000000000001
  provtrack show --db ./provtrack.db --cbor 01928c7e-8b1f-7000-8000-000000000001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path (default from config)")
	cmd.Flags().BoolVar(&opts.CBOR, "cbor", false, "print CBOR diagnostic notation")

	return cmd
}

func runShow(opts *ShowOptions, key string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, err := opts.openStore(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "failed to open store", err)
	}
	defer st.Close()

	rec, err := st.ReadEvent(cmd.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("event %s not found", key), nil)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "failed to read event", err)
	}

	if opts.CBOR {
		data, err := codec.Marshal(rec)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, "failed to encode event", err)
		}
		diag, err := codec.Diagnose(data)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, "failed to diagnose event", err)
		}
		if f.IsJSON() {
			return f.Success(map[string]string{"key": rec.Key, "cbor": diag})
		}
		fmt.Fprintln(f.Writer, diag)
		return nil
	}

	if f.IsJSON() {
		return f.Success(rec)
	}
	writeRecord(f.Writer, rec)
	return nil
}
