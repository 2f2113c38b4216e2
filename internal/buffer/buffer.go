package buffer

import (
	"sync"

	"github.com/roach88/provtrack/internal/metrics"
	"github.com/roach88/provtrack/internal/schema"
)

// Buffer is an ordered in-memory queue of events awaiting sync.
type Buffer struct {
	mu      sync.Mutex
	records []schema.Record

	clock   Sequencer
	keys    KeyGenerator
	metrics *metrics.Metrics
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithClock sets the sequencer used to stamp records.
func WithClock(c Sequencer) Option {
	return func(b *Buffer) { b.clock = c }
}

// WithKeyGenerator sets the key generator used to stamp records.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(b *Buffer) { b.keys = g }
}

// WithMetrics reports buffer depth and recorded events to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Buffer) { b.metrics = m }
}

// New creates an empty buffer using UUIDv7 keys and a fresh clock.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		records: make([]schema.Record, 0, 16),
		clock:   NewClock(),
		keys:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Record appends a deep copy of ev to the tail and returns the stored
// envelope. The caller's event is never shared with the buffer, so later
// mutation by the caller cannot alter what gets synced.
func (b *Buffer) Record(ev schema.Event) schema.Record {
	rec := schema.Record{ID: schema.Unassigned, Event: ev.Clone()}

	b.mu.Lock()
	rec.Key = b.keys.Generate()
	rec.Seq = b.clock.Next()
	b.records = append(b.records, rec)
	depth := len(b.records)
	b.mu.Unlock()

	b.metrics.EventRecorded(string(ev.Kind))
	b.metrics.SetBufferDepth(depth)
	return rec.Clone()
}

// Drain removes and returns every buffered record in insertion order.
// It returns an empty, non-nil slice when the buffer is empty.
func (b *Buffer) Drain() []schema.Record {
	b.mu.Lock()
	out := b.records
	b.records = make([]schema.Record, 0, 16)
	b.mu.Unlock()

	b.metrics.SetBufferDepth(0)
	return out
}

// Requeue puts records back at the head of the buffer, ahead of anything
// recorded since they were drained. Their keys and sequence numbers are
// kept, so a retry resubmits exactly the same envelopes.
func (b *Buffer) Requeue(records []schema.Record) {
	if len(records) == 0 {
		return
	}
	b.mu.Lock()
	merged := make([]schema.Record, 0, len(records)+len(b.records))
	merged = append(merged, records...)
	merged = append(merged, b.records...)
	b.records = merged
	depth := len(b.records)
	b.mu.Unlock()

	b.metrics.SetBufferDepth(depth)
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Peek returns copies of the buffered records without removing them.
func (b *Buffer) Peek() []schema.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]schema.Record, len(b.records))
	for i, r := range b.records {
		out[i] = r.Clone()
	}
	return out
}
