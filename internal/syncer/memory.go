package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/provtrack/internal/schema"
)

// MemoryBackend is an in-process Backend for tests and dry runs.
// Ids are issued from one counter per entity kind, starting at 1.
type MemoryBackend struct {
	mu      sync.Mutex
	next    map[schema.SlotKind]int64
	eventID int64
	byKey   map[string]memoryEntry
	synced  []schema.Record
}

type memoryEntry struct {
	digest  string
	receipt schema.Receipt
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		next:  make(map[schema.SlotKind]int64),
		byKey: make(map[string]memoryEntry),
	}
}

// Sync implements Backend. The batch is accepted or rejected as a whole.
func (m *MemoryBackend) Sync(ctx context.Context, records []schema.Record) ([]schema.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	digests := make([]string, len(records))
	for i, r := range records {
		d, err := schema.Digest(r.Event)
		if err != nil {
			return nil, err
		}
		digests[i] = d
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range records {
		if e, ok := m.byKey[r.Key]; ok && e.digest != digests[i] {
			return nil, fmt.Errorf("key %q: %w", r.Key, schema.ErrKeyConflict)
		}
	}

	receipts := make([]schema.Receipt, len(records))
	for i, r := range records {
		if e, ok := m.byKey[r.Key]; ok {
			receipts[i] = e.receipt
			continue
		}

		stored := r.Clone()
		slots := schema.Slots(&stored.Event)
		rc := schema.Receipt{Key: r.Key, IDs: make([]int64, len(slots))}
		for j, s := range slots {
			m.next[s.Kind]++
			rc.IDs[j] = m.next[s.Kind]
		}
		m.eventID++
		rc.EventID = m.eventID

		if err := schema.ApplyReceipt(&stored, rc); err != nil {
			return nil, err
		}
		m.byKey[r.Key] = memoryEntry{digest: digests[i], receipt: rc}
		m.synced = append(m.synced, stored)
		receipts[i] = rc
	}
	return receipts, nil
}

// Records returns copies of every stored event in sync order.
func (m *MemoryBackend) Records() []schema.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]schema.Record, len(m.synced))
	for i, r := range m.synced {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of distinct events stored.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.synced)
}
