package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/provtrack/internal/config"
	"github.com/roach88/provtrack/internal/httpbackend"
	"github.com/roach88/provtrack/internal/redisstore"
	"github.com/roach88/provtrack/internal/store"
	"github.com/roach88/provtrack/internal/syncer"
)

// openBackend connects the configured backend. The returned func releases
// it and is never nil.
func openBackend(ctx context.Context, cfg config.BackendConfig, logger zerolog.Logger) (syncer.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Kind {
	case config.BackendMemory:
		return syncer.NewMemoryBackend(), noop, nil

	case config.BackendSQLite:
		st, err := store.Open(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Debug().Str("path", cfg.SQLitePath).Msg("sqlite store opened")
		return st, st.Close, nil

	case config.BackendRedis:
		var opts []redisstore.Option
		if cfg.RedisPrefix != "" {
			opts = append(opts, redisstore.WithPrefix(cfg.RedisPrefix))
		}
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, noop, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Debug().Str("addr", cfg.RedisAddr).Msg("redis store connected")
		return rs, rs.Close, nil

	case config.BackendHTTP:
		var opts []httpbackend.ClientOption
		if cfg.AuthSecret != "" {
			opts = append(opts, httpbackend.WithToken([]byte(cfg.AuthSecret), cfg.Subject))
		}
		return httpbackend.NewClient(cfg.HTTPEndpoint, opts...), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown backend kind %q", cfg.Kind)
}
