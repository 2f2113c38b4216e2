package syncer

import (
	"context"
	"errors"

	"github.com/roach88/provtrack/internal/schema"
)

// Backend persists synced events and issues their ids.
//
// Sync must return one receipt per record, in order, each covering every
// slot of its record's event (see schema.Slots). Resubmitting a record with
// an already stored key and identical content must return the original
// receipt; the same key with different content must fail with
// schema.ErrKeyConflict.
type Backend interface {
	Sync(ctx context.Context, records []schema.Record) ([]schema.Receipt, error)
}

// Queue is the buffer side of a Syncer. *buffer.Buffer implements it.
type Queue interface {
	Drain() []schema.Record
	Requeue(records []schema.Record)
}

// ErrRejected marks a backend error that resubmitting the same batch cannot
// fix, such as a malformed request. Backends wrap it; Sync does not retry it.
var ErrRejected = errors.New("batch rejected by backend")
