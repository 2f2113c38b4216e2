package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/buffer"
	"github.com/roach88/provtrack/internal/config"
	"github.com/roach88/provtrack/internal/instrument"
	"github.com/roach88/provtrack/internal/logging"
	"github.com/roach88/provtrack/internal/metrics"
	"github.com/roach88/provtrack/internal/pipespec"
	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/syncer"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend  string
	Database string
	NoSync   bool

	// KeyGenerator overrides event key generation (for testing).
	// If nil, keys are UUIDv7.
	KeyGenerator buffer.KeyGenerator
}

// RunResult is the outcome of a run.
type RunResult struct {
	Definition string          `json:"definition"`
	Backend    string          `json:"backend,omitempty"`
	Recorded   int             `json:"recorded"`
	Synced     []schema.Record `json:"synced"`
	Pending    int             `json:"pending"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <definition>",
		Short: "Fit a pipeline with provenance tracking",
		Long: `Build the pipeline described by a definition file, fit it on the
definition's data while recording provenance, and sync the recorded events
to the configured backend.

Definitions may be YAML, JSON or CUE.

Example:
  provtrack run pipeline.yaml
  provtrack run --backend sqlite --db ./runs.db pipeline.cue
  provtrack run --no-sync --format json pipeline.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "", "backend kind, overrides config (memory|sqlite|redis|http)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path, overrides config")
	cmd.Flags().BoolVar(&opts.NoSync, "no-sync", false, "record events without syncing them")

	return cmd
}

func runPipeline(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidConfig, "failed to load config", err)
	}
	if opts.Backend != "" {
		cfg.Backend.Kind = opts.Backend
	}
	if opts.Database != "" {
		cfg.Backend.SQLitePath = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidConfig, "invalid config", err)
	}
	logger := opts.logger(cfg, cmd.ErrOrStderr())

	def, err := pipespec.Load(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidDefinition, "invalid definition", err)
	}
	p, err := def.Build()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidDefinition, "failed to build pipeline", err)
	}
	X, y, err := def.LoadData(filepath.Dir(path))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidDefinition, "failed to load data", err)
	}
	f.VerboseLog("Loaded %d rows x %d columns for %q", X.NumRows(), X.NumCols(), def.Name)

	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		m = metrics.New(reg)
	}

	bufOpts := []buffer.Option{buffer.WithMetrics(m)}
	if opts.KeyGenerator != nil {
		bufOpts = append(bufOpts, buffer.WithKeyGenerator(opts.KeyGenerator))
	}
	buf := buffer.New(bufOpts...)
	in := instrument.New(buf,
		instrument.WithLogger(logging.Component(logger, "instrument")),
		instrument.WithMetrics(m),
	)

	if _, err := in.FitPipeline(p, X, y); err != nil {
		switch {
		case instrument.IsSchemaMismatch(err):
			return f.Fail(ExitCommandError, ErrCodeInvalidDefinition, "pipeline cannot be fitted", err)
		case instrument.IsCaptureError(err):
			return f.Fail(ExitFailure, ErrCodeCapture, "pipeline fitted but provenance was not captured", err)
		default:
			return f.Fail(ExitFailure, ErrCodeGeneric, "fit failed", err)
		}
	}

	result := RunResult{Definition: def.Name, Recorded: buf.Len(), Synced: []schema.Record{}}
	if !opts.NoSync {
		result.Backend = cfg.Backend.Kind
		synced, err := syncRecorded(cmd.Context(), cfg, buf, m, logger)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeSync, "sync failed", err)
		}
		result.Synced = synced
	}
	result.Pending = buf.Len()

	if reg != nil && opts.Verbose {
		writeMetrics(f.GetErrWriter(), reg)
	}
	if f.IsJSON() {
		return f.Success(result)
	}
	writeRunResult(f.Writer, result, buf.Peek())
	return nil
}

// syncRecorded pushes every buffered event. Interrupts cancel the sync;
// unsent events stay in buf.
func syncRecorded(parent context.Context, cfg *config.Config, buf *buffer.Buffer, m *metrics.Metrics, logger zerolog.Logger) ([]schema.Record, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg.Backend, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend.Kind, err)
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Error().Err(err).Msg("error closing backend")
		}
	}()

	s := syncer.New(buf, backend,
		syncer.WithConfig(cfg.Sync),
		syncer.WithLogger(logging.Component(logger, "syncer")),
		syncer.WithMetrics(m),
	)
	synced, err := s.Sync(ctx)
	if err != nil && errors.Is(err, context.Canceled) {
		logger.Warn().Int("pending", buf.Len()).Msg("sync interrupted")
	}
	return synced, err
}

func writeRunResult(w io.Writer, r RunResult, pending []schema.Record) {
	fmt.Fprintf(w, "Fitted %q, recorded %d event(s)\n", r.Definition, r.Recorded)
	switch {
	case r.Backend == "":
		fmt.Fprintln(w, "Sync skipped")
	default:
		fmt.Fprintf(w, "Synced %d event(s) to %s backend\n", len(r.Synced), r.Backend)
	}
	for _, rec := range r.Synced {
		writeRecord(w, rec)
	}
	for _, rec := range pending {
		writeRecord(w, rec)
	}
}

// writeMetrics dumps counter and gauge values gathered from reg.
func writeMetrics(w io.Writer, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics unavailable: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var v float64
			switch {
			case metric.GetCounter() != nil:
				v = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				v = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				v = float64(metric.GetHistogram().GetSampleCount())
			default:
				continue
			}
			labels := ""
			for _, lp := range metric.GetLabel() {
				labels += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), labels, formatFloat(v))
		}
	}
}
