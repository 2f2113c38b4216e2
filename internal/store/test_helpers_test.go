package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates an unsynced record with the given envelope.
func createTestRecord(key string, seq int64, ev schema.Event) schema.Record {
	return schema.Record{Key: key, Seq: seq, ID: schema.Unassigned, Event: ev}
}

func fitRecord(key string, seq int64, typ, tag string) schema.Record {
	return createTestRecord(key, seq, schema.NewFitEvent(testutil.FitEvent(typ, tag)))
}

func pipelineRecord(key string, seq int64) schema.Record {
	return createTestRecord(key, seq, schema.NewPipelineEvent(testutil.PipelineEvent()))
}
