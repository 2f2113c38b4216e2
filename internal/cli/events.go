package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Database string
	Kind     string
	AfterSeq int64
	Limit    int
	Tag      string
}

// EventSummary is one line of the events listing.
type EventSummary struct {
	Key  string           `json:"key"`
	Seq  int64            `json:"seq"`
	ID   int64            `json:"id"`
	Kind schema.EventKind `json:"kind"`
	Type string           `json:"type"`
	Tag  string           `json:"tag,omitempty"`
}

// EventsResult is the events listing plus store totals.
type EventsResult struct {
	Events []EventSummary `json:"events"`
	Counts store.Counts   `json:"counts"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List synced events in a SQLite store",
		Long: `List events synced to a SQLite tracking store, oldest first.

Examples:
  provtrack events --db ./provtrack.db
  provtrack events --db ./provtrack.db --kind pipeline --limit 10
  provtrack events --db ./provtrack.db --tag digits-dataset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path (default from config)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only list events of this kind (fit|transform|pipeline)")
	cmd.Flags().Int64Var(&opts.AfterSeq, "after", 0, "only list events with a greater sequence number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 for all)")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "only list events that touched data frames with this tag")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	switch schema.EventKind(opts.Kind) {
	case "", schema.EventFit, schema.EventTransform, schema.EventPipeline:
	default:
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("unknown event kind %q", opts.Kind), nil)
	}

	st, err := opts.openStore(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "failed to open store", err)
	}
	defer st.Close()

	records, err := listRecords(ctx, st, opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "failed to read events", err)
	}
	counts, err := st.Counts(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "failed to count rows", err)
	}

	result := EventsResult{Events: make([]EventSummary, len(records)), Counts: counts}
	for i, rec := range records {
		result.Events[i] = summarizeRecord(rec)
	}
	if f.IsJSON() {
		return f.Success(result)
	}
	return writeEvents(f.Writer, result)
}

func listRecords(ctx context.Context, st *store.Store, opts *EventsOptions) ([]schema.Record, error) {
	if opts.Tag == "" {
		return st.ReadEvents(ctx, store.ListOptions{
			Kind:     schema.EventKind(opts.Kind),
			AfterSeq: opts.AfterSeq,
			Limit:    opts.Limit,
		})
	}

	all, err := st.EventsForTag(ctx, opts.Tag)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Record, 0, len(all))
	for _, rec := range all {
		if opts.Kind != "" && rec.Event.Kind != schema.EventKind(opts.Kind) {
			continue
		}
		if rec.Seq <= opts.AfterSeq {
			continue
		}
		out = append(out, rec)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// summarizeRecord reports the root estimator type and the tag of the data
// the event was fitted or transformed on.
func summarizeRecord(rec schema.Record) EventSummary {
	s := EventSummary{Key: rec.Key, Seq: rec.Seq, ID: rec.ID, Kind: rec.Event.Kind}
	switch rec.Event.Kind {
	case schema.EventFit:
		s.Type, s.Tag = rec.Event.Fit.Model.Type, rec.Event.Fit.DF.Tag
	case schema.EventTransform:
		s.Type, s.Tag = rec.Event.Transform.Transformer.Type, rec.Event.Transform.OldDataFrame.Tag
	case schema.EventPipeline:
		fit := rec.Event.Pipeline.PipelineFit
		s.Type, s.Tag = fit.Model.Type, fit.DF.Tag
	}
	return s
}

func writeEvents(w io.Writer, r EventsResult) error {
	if len(r.Events) == 0 {
		fmt.Fprintln(w, "No events found")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tID\tKIND\tTYPE\tTAG\tKEY")
		for _, e := range r.Events {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.Seq, formatID(e.ID), e.Kind, e.Type, e.Tag, e.Key)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "\nStore: %d events, %d data frames, %d transformers, %d specs\n",
		r.Counts.Events, r.Counts.DataFrames, r.Counts.Transformers, r.Counts.TransformerSpecs)
	return nil
}

// openStore opens an existing SQLite store. path defaults to the
// configured sqlite_path. Unlike store.Open it refuses to create a new
// database.
func (o *RootOptions) openStore(path string) (*store.Store, error) {
	if path == "" {
		cfg, err := o.loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Backend.SQLitePath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", path, err)
	}
	return store.Open(path)
}
