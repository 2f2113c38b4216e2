package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/roach88/provtrack/internal/metrics"
	"github.com/roach88/provtrack/internal/schema"
)

// Config controls timeouts and retries of one Sync call.
type Config struct {
	// Timeout bounds the whole call, retries included. Zero means no bound
	// beyond the caller's context.
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gtefield=InitialBackoff"`
}

// DefaultConfig returns the defaults used when no Config is given.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Syncer moves events from a Queue to a Backend.
type Syncer struct {
	// mu serializes Sync calls so a failed batch is re-buffered before the
	// next call drains.
	mu sync.Mutex

	queue   Queue
	backend Backend
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithConfig replaces the default timeout and retry settings.
func WithConfig(cfg Config) Option {
	return func(s *Syncer) { s.cfg = cfg }
}

// WithLogger sets the logger for retry and failure reports.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// WithMetrics reports attempts, failures and synced events to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// New creates a Syncer draining q into b.
func New(q Queue, b Backend, opts ...Option) *Syncer {
	s := &Syncer{
		queue:   q,
		backend: b,
		cfg:     DefaultConfig(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxAttempts < 1 {
		s.cfg.MaxAttempts = 1
	}
	return s
}

// Sync delivers every buffered event and returns id-stamped copies in
// insertion order. An empty buffer yields an empty slice and no backend
// call. On failure the drained events are re-buffered at the head and an
// *Error is returned.
func (s *Syncer) Sync(ctx context.Context) ([]schema.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.queue.Drain()
	if len(records) == 0 {
		return []schema.Record{}, nil
	}

	start := time.Now()
	defer func() { s.metrics.ObserveSync(time.Since(start)) }()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	attempts := 0
	synced, err := backoff.Retry(ctx, func() ([]schema.Record, error) {
		attempts++
		s.metrics.SyncAttempt()
		return s.transmit(ctx, records)
	},
		backoff.WithBackOff(s.backOff()),
		backoff.WithMaxTries(uint(s.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn().
				Err(err).
				Int("events", len(records)).
				Int("attempt", attempts).
				Dur("retry_in", next).
				Msg("sync attempt failed")
		}),
	)
	if err != nil {
		s.queue.Requeue(records)
		s.metrics.SyncFailed()

		code := ErrCodeTransmissionFailed
		var pe *protocolError
		if errors.As(err, &pe) {
			code = ErrCodeProtocolMismatch
		}
		s.logger.Warn().
			Err(err).
			Str("code", string(code)).
			Int("events", len(records)).
			Int("attempts", attempts).
			Msg("sync failed, events re-buffered")
		return nil, &Error{Code: code, Events: len(records), Attempts: attempts, Err: err}
	}

	s.metrics.EventsSynced(len(synced))
	s.logger.Info().
		Int("events", len(synced)).
		Int("attempts", attempts).
		Str("first_key", synced[0].Key).
		Msg("events synced")
	return synced, nil
}

// transmit sends one batch and stamps receipts onto copies of it.
func (s *Syncer) transmit(ctx context.Context, records []schema.Record) ([]schema.Record, error) {
	receipts, err := s.backend.Sync(ctx, records)
	if err != nil {
		if errors.Is(err, schema.ErrKeyConflict) || errors.Is(err, ErrRejected) {
			return nil, backoff.Permanent(&protocolError{err: err})
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	if len(receipts) != len(records) {
		return nil, backoff.Permanent(&protocolError{
			err: fmt.Errorf("backend returned %d receipts for %d events", len(receipts), len(records)),
		})
	}

	out := make([]schema.Record, len(records))
	for i, r := range records {
		c := r.Clone()
		if err := schema.ApplyReceipt(&c, receipts[i]); err != nil {
			return nil, backoff.Permanent(&protocolError{err: err})
		}
		out[i] = c
	}
	return out, nil
}

func (s *Syncer) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if s.cfg.InitialBackoff > 0 {
		b.InitialInterval = s.cfg.InitialBackoff
	}
	if s.cfg.MaxBackoff > 0 {
		b.MaxInterval = s.cfg.MaxBackoff
	}
	return b
}

// Run syncs every interval until ctx is done, then makes one final attempt
// with a fresh context bounded by the configured timeout. Failures are
// logged; their events stay buffered for the next tick.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if _, err := s.Sync(context.WithoutCancel(ctx)); err != nil {
				s.logger.Error().Err(err).Msg("final sync failed")
			}
			return
		case <-ticker.C:
			// Errors are logged inside Sync and retried next tick.
			_, _ = s.Sync(ctx)
		}
	}
}
