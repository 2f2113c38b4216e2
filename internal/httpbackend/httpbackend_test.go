package httpbackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/metrics"
	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/store"
	"github.com/roach88/provtrack/internal/syncer"
	"github.com/roach88/provtrack/internal/testutil"
)

var secret = []byte("test-secret")

type failingBackend struct{}

func (failingBackend) Sync(context.Context, []schema.Record) ([]schema.Receipt, error) {
	return nil, errors.New("disk full")
}

func fitRecord(key string, typ string) schema.Record {
	return schema.Record{Key: key, Seq: 1, ID: schema.Unassigned, Event: schema.NewFitEvent(testutil.FitEvent(typ, "iris"))}
}

func newServer(t *testing.T, b syncer.Backend, opts ...HandlerOption) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(b, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SyncRoundTrip(t *testing.T) {
	mem := syncer.NewMemoryBackend()
	srv := newServer(t, mem)

	rcs, err := NewClient(srv.URL).Sync(context.Background(), []schema.Record{fitRecord("a", "PCA"), fitRecord("b", "PCA")})
	require.NoError(t, err)
	require.Len(t, rcs, 2)
	assert.Equal(t, schema.Receipt{Key: "a", EventID: 1, IDs: []int64{1, 1, 1}}, rcs[0])
	assert.Equal(t, 2, mem.Len())
}

func TestClient_ThroughSyncer(t *testing.T) {
	srv := newServer(t, syncer.NewMemoryBackend())
	buf := testutil.NewBuffer()
	buf.Record(schema.NewPipelineEvent(testutil.PipelineEvent()))

	got, err := syncer.New(buf, NewClient(srv.URL+"/")).Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, schema.Assigned(&got[0].Event))
}

func TestClient_KeyConflict(t *testing.T) {
	srv := newServer(t, syncer.NewMemoryBackend())
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.Sync(ctx, []schema.Record{fitRecord("a", "PCA")})
	require.NoError(t, err)

	_, err = c.Sync(ctx, []schema.Record{fitRecord("a", "Ridge")})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrKeyConflict)
}

func TestClient_ServerErrorIsRetryable(t *testing.T) {
	srv := newServer(t, failingBackend{})

	_, err := NewClient(srv.URL).Sync(context.Background(), []schema.Record{fitRecord("a", "PCA")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, syncer.ErrRejected)
	assert.Contains(t, err.Error(), "BACKEND_ERROR")
	assert.Contains(t, err.Error(), "disk full")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Sync(context.Background(), []schema.Record{fitRecord("a", "PCA")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, syncer.ErrRejected)
}

func TestHandler_BadRequests(t *testing.T) {
	srv := newServer(t, syncer.NewMemoryBackend())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"records": [`},
		{"missing key", `{"records": [{"key": "", "event": {"kind": "fit", "fit": {}}}]}`},
		{"payload mismatch", `{"records": [{"key": "a", "event": {"kind": "fit"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/sync", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var er ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
			assert.Equal(t, CodeBadRequest, er.Code)
		})
	}
}

func TestHandler_BodyTooLarge(t *testing.T) {
	backend := syncer.NewMemoryBackend()
	srv := newServer(t, backend, WithMaxBodyBytes(256))

	body, err := json.Marshal(SyncRequest{Records: []schema.Record{fitRecord("a", "PCA")}})
	require.NoError(t, err)
	require.Greater(t, len(body), 256)

	resp, err := http.Post(srv.URL+"/v1/sync", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	var er ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Equal(t, CodeBadRequest, er.Code)
	assert.Equal(t, "request body exceeds 256 bytes", er.Message)

	// The client treats it as a rejection, so the syncer will not retry.
	_, err = NewClient(srv.URL).Sync(context.Background(), []schema.Record{fitRecord("a", "PCA")})
	require.Error(t, err)
	assert.ErrorIs(t, err, syncer.ErrRejected)
	assert.Equal(t, 0, backend.Len())
}

func TestHandler_Healthz(t *testing.T) {
	srv := newServer(t, syncer.NewMemoryBackend(), WithAuthSecret(secret))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	srv := newServer(t, syncer.NewMemoryBackend(), WithAuthSecret(secret))
	recs := []schema.Record{fitRecord("a", "PCA")}
	ctx := context.Background()

	_, err := NewClient(srv.URL).Sync(ctx, recs)
	assert.ErrorIs(t, err, syncer.ErrRejected, "no token")

	_, err = NewClient(srv.URL, WithToken([]byte("wrong"), "ci")).Sync(ctx, recs)
	assert.ErrorIs(t, err, syncer.ErrRejected, "wrong secret")

	expired := NewClient(srv.URL, WithToken(secret, "ci"))
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, err = expired.Sync(ctx, recs)
	assert.ErrorIs(t, err, syncer.ErrRejected, "expired token")

	_, err = NewClient(srv.URL, WithToken(secret, "ci")).Sync(ctx, recs)
	assert.NoError(t, err)
}

func TestVerifyToken(t *testing.T) {
	now := time.Now()
	token, err := signToken(secret, "trainer-1", now)
	require.NoError(t, err)

	claims, err := verifyToken(secret, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "trainer-1", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)

	_, err = verifyToken(secret, token)
	assert.Error(t, err, "missing Bearer prefix")
}

func TestHandler_ReadEvent(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "track.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	srv := newServer(t, st)

	_, err = NewClient(srv.URL).Sync(context.Background(), []schema.Record{fitRecord("a", "PCA")})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/v1/events/a")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec schema.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "a", rec.Key)
	assert.True(t, schema.Assigned(&rec.Event))

	missing, err := http.Get(srv.URL + "/v1/events/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHandler_NoReadRouteWithoutReader(t *testing.T) {
	srv := newServer(t, syncer.NewMemoryBackend())

	resp, err := http.Get(srv.URL + "/v1/events/a")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := newServer(t, syncer.NewMemoryBackend(), WithMetrics(metrics.New(reg)))

	_, err := NewClient(ok.URL).Sync(context.Background(), []schema.Record{fitRecord("k1", "PCA")})
	require.NoError(t, err)

	failReg := prometheus.NewRegistry()
	bad := newServer(t, failingBackend{}, WithMetrics(metrics.New(failReg)))
	_, err = NewClient(bad.URL).Sync(context.Background(), []schema.Record{fitRecord("k2", "PCA")})
	require.Error(t, err)

	const synced = `
# HELP provtrack_events_synced_total Events acknowledged by the backend.
# TYPE provtrack_events_synced_total counter
provtrack_events_synced_total 1
`
	assert.NoError(t, promtestutil.GatherAndCompare(reg, strings.NewReader(synced), "provtrack_events_synced_total"))

	const failed = `
# HELP provtrack_sync_failures_total Sync calls that gave up and re-buffered their events.
# TYPE provtrack_sync_failures_total counter
provtrack_sync_failures_total 1
`
	assert.NoError(t, promtestutil.GatherAndCompare(failReg, strings.NewReader(failed), "provtrack_sync_failures_total"))
}
