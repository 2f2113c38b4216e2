package httpbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/roach88/provtrack/internal/metrics"
	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/syncer"
)

// Reader is implemented by backends that can serve stored events.
type Reader interface {
	ReadEvent(ctx context.Context, key string) (schema.Record, error)
}

// DefaultMaxBodyBytes caps a sync request body unless WithMaxBodyBytes
// says otherwise.
const DefaultMaxBodyBytes int64 = 32 << 20

type handler struct {
	backend syncer.Backend
	secret  []byte
	maxBody int64
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// HandlerOption configures NewHandler.
type HandlerOption func(*handler)

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) HandlerOption {
	return func(h *handler) { h.logger = l }
}

// WithMetrics records accepted syncs in m.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *handler) { h.metrics = m }
}

// WithMaxBodyBytes rejects sync requests whose body exceeds n bytes.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *handler) { h.maxBody = n }
}

// WithAuthSecret requires an HS256 bearer token signed with secret on the
// /v1 routes.
func WithAuthSecret(secret []byte) HandlerOption {
	return func(h *handler) { h.secret = secret }
}

// NewHandler serves b over HTTP. The returned router can be extended with
// more routes, such as /metrics.
func NewHandler(b syncer.Backend, opts ...HandlerOption) *chi.Mux {
	h := &handler{backend: b, maxBody: DefaultMaxBodyBytes, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		if h.secret != nil {
			r.Use(h.authenticate)
		}
		r.Post("/sync", h.sync)
		if reader, ok := b.(Reader); ok {
			r.Get("/events/{key}", h.readEvent(reader))
		}
	})
	return r
}

func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := verifyToken(h.secret, r.Header.Get("Authorization"))
		if err != nil {
			h.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected unauthenticated request")
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, err.Error())
			return
		}
		h.logger.Debug().Str("subject", claims.Subject).Str("path", r.URL.Path).Msg("authenticated")
		next.ServeHTTP(w, r)
	})
}

func (h *handler) sync(w http.ResponseWriter, r *http.Request) {
	var body SyncRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn().Err(err).Msg("sync: invalid request body")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}
	for i, rec := range body.Records {
		if rec.Key == "" {
			writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("record %d: missing key", i))
			return
		}
		if err := rec.Event.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("record %q: %v", rec.Key, err))
			return
		}
	}

	start := time.Now()
	h.metrics.SyncAttempt()
	receipts, err := h.backend.Sync(r.Context(), body.Records)
	h.metrics.ObserveSync(time.Since(start))
	if err != nil {
		h.metrics.SyncFailed()
	}
	switch {
	case errors.Is(err, schema.ErrKeyConflict):
		h.logger.Warn().Err(err).Int("events", len(body.Records)).Msg("sync: key conflict")
		writeError(w, http.StatusConflict, CodeKeyConflict, err.Error())
		return
	case err != nil:
		h.logger.Error().Err(err).Int("events", len(body.Records)).Msg("sync failed")
		writeError(w, http.StatusInternalServerError, CodeBackendError, err.Error())
		return
	}

	h.metrics.EventsSynced(len(receipts))
	h.logger.Debug().Int("events", len(receipts)).Msg("sync: stored")
	writeJSON(w, http.StatusOK, SyncResponse{Receipts: receipts}, h.logger)
}

func (h *handler) readEvent(reader Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		rec, err := reader.ReadEvent(r.Context(), key)
		switch {
		case errors.Is(err, schema.ErrNotFound):
			writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
			return
		case err != nil:
			h.logger.Error().Err(err).Str("key", key).Msg("read event failed")
			writeError(w, http.StatusInternalServerError, CodeBackendError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rec, h.logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, msg string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg}, zerolog.Nop())
}
