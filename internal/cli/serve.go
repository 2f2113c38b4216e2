package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/httpbackend"
	"github.com/roach88/provtrack/internal/logging"
	"github.com/roach88/provtrack/internal/metrics"
	"github.com/roach88/provtrack/internal/store"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	Database   string
	AuthSecret string

	// ready, when set, receives the bound address once the server listens
	// (for testing).
	ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a SQLite store as an HTTP tracking backend",
		Long: `Run the HTTP tracking endpoint over a SQLite store.

Routes:
  POST /v1/sync          accept a batch of events
  GET  /v1/events/{key}  read one stored event
  GET  /healthz          liveness
  GET  /metrics          Prometheus metrics

When an auth secret is configured, /v1 routes require an HS256 bearer
token signed with it.

Example:
  provtrack serve --db ./provtrack.db --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address, overrides config")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path, overrides config")
	cmd.Flags().StringVar(&opts.AuthSecret, "auth-secret", "", "require tokens signed with this secret, overrides config")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidConfig, "failed to load config", err)
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Database != "" {
		cfg.Backend.SQLitePath = opts.Database
	}
	if opts.AuthSecret != "" {
		cfg.Server.AuthSecret = opts.AuthSecret
	}
	logger := opts.logger(cfg, cmd.ErrOrStderr())

	st, err := store.Open(cfg.Backend.SQLitePath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "failed to open store", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing store")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handlerOpts := []httpbackend.HandlerOption{
		httpbackend.WithLogger(logging.Component(logger, "http")),
		httpbackend.WithMetrics(metrics.New(reg)),
	}
	if cfg.Server.AuthSecret != "" {
		handlerOpts = append(handlerOpts, httpbackend.WithAuthSecret([]byte(cfg.Server.AuthSecret)))
	}
	router := httpbackend.NewHandler(st, handlerOpts...)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to listen", err)
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info().Str("addr", addr).Str("db", cfg.Backend.SQLitePath).
		Bool("auth", cfg.Server.AuthSecret != "").Msg("serving")
	if !f.IsJSON() {
		fmt.Fprintf(f.Writer, "Serving %s on %s\n", cfg.Backend.SQLitePath, addr)
	}
	if opts.ready != nil {
		opts.ready <- addr
	}

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return f.Fail(ExitFailure, ErrCodeGeneric, "server error", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown did not complete")
			_ = srv.Close()
		}
	}

	if f.IsJSON() {
		return f.Success(map[string]string{"addr": addr, "status": "stopped"})
	}
	return nil
}
