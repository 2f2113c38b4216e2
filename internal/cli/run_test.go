package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/buffer"
	"github.com/roach88/provtrack/internal/schema"
)

const scaledRidge = "testdata/scaled_ridge.yaml"

func runWith(t *testing.T, opts *RunOptions, path string) (stdout, stderr *bytes.Buffer, err error) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRunCommand(opts.RootOptions)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return stdout, stderr, runPipeline(opts, path, cmd)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRun_SQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	opts := &RunOptions{
		RootOptions:  &RootOptions{Format: "text"},
		Backend:      "sqlite",
		Database:     db,
		KeyGenerator: buffer.NewFixedGenerator("evt-1"),
	}

	out, _, err := runWith(t, opts, scaledRidge)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, `Fitted "scaled-ridge", recorded 1 event(s)`)
	assert.Contains(t, text, "Synced 1 event(s) to sqlite backend")
	assert.Contains(t, text, "Event evt-1")
	assert.Contains(t, text, "Kind: pipeline  Seq: 1  ID: 1")
	assert.Contains(t, text, "fit Pipeline  transformer=1 df=1 spec=1")
	assert.Contains(t, text, "fit Ridge [ridge-model]")
	assert.Contains(t, text, "100 rows [digits-dataset], columns [A:int64 B:int64]")
	assert.FileExists(t, db)
}

func TestRun_MemoryJSON(t *testing.T) {
	opts := &RunOptions{
		RootOptions:  &RootOptions{Format: "json"},
		Backend:      "memory",
		KeyGenerator: buffer.NewFixedGenerator("evt-1"),
	}

	out, _, err := runWith(t, opts, scaledRidge)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Data.Backend)
	assert.Equal(t, 1, resp.Data.Recorded)
	assert.Equal(t, 0, resp.Data.Pending)
	require.Len(t, resp.Data.Synced, 1)

	rec := resp.Data.Synced[0]
	assert.Equal(t, "evt-1", rec.Key)
	assert.Equal(t, int64(1), rec.ID)
	assert.True(t, schema.Assigned(&rec.Event))
	require.Len(t, rec.Event.Pipeline.FitStages, 2)
	assert.Equal(t, "StandardScaler", rec.Event.Pipeline.FitStages[0].Fit.Model.Type)
}

func TestRun_NoSync(t *testing.T) {
	opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}, NoSync: true}

	out, _, err := runWith(t, opts, scaledRidge)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Sync skipped")
	assert.Contains(t, out.String(), "transformer=- df=- spec=-")
}

func TestRun_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"misspelled field", "testdata/misspelled.yaml"},
		{"unfittable pipeline", "testdata/unfittable.yaml"},
		{"missing file", "testdata/missing.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}, Backend: "memory"}
			out, _, err := runWith(t, opts, tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out.String(), "Error [E001]")
		})
	}
}

func TestRun_InvalidBackendFlag(t *testing.T) {
	opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}, Backend: "carrier-pigeon"}
	out, _, err := runWith(t, opts, scaledRidge)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.String(), "Error [E002]")
}

func TestRun_SyncFailureKeepsEvents(t *testing.T) {
	cfg := writeConfig(t, `
backend:
  kind: http
  http_endpoint: http://127.0.0.1:1
sync:
  max_attempts: 2
  initial_backoff: 1ms
  max_backoff: 2ms
`)
	opts := &RunOptions{RootOptions: &RootOptions{Format: "text", ConfigFile: cfg}}

	out, _, err := runWith(t, opts, scaledRidge)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "Error [E005]: sync failed")
}

func TestRun_VerboseMetrics(t *testing.T) {
	cfg := writeConfig(t, "metrics:\n  enabled: true\n")
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json", Verbose: true, ConfigFile: cfg},
		Backend:     "memory",
	}

	out, errOut, err := runWith(t, opts, scaledRidge)
	require.NoError(t, err)
	assert.True(t, json.Valid(out.Bytes()))
	assert.Contains(t, errOut.String(), `provtrack_events_recorded_total{kind="pipeline"} 1`)
	assert.Contains(t, errOut.String(), "provtrack_events_synced_total 1")
}
