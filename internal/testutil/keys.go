package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/provtrack/internal/buffer"
)

// SequentialKeys issues "<prefix>-1", "<prefix>-2", ... as event keys.
// It never runs out, unlike buffer.FixedGenerator.
type SequentialKeys struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialKeys creates a generator. An empty prefix means "evt".
func NewSequentialKeys(prefix string) *SequentialKeys {
	if prefix == "" {
		prefix = "evt"
	}
	return &SequentialKeys{prefix: prefix}
}

// Generate returns the next key.
func (g *SequentialKeys) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// NewBuffer returns a buffer stamping records with sequential keys and a
// deterministic clock, so recorded envelopes are reproducible.
func NewBuffer() *buffer.Buffer {
	return buffer.New(
		buffer.WithKeyGenerator(NewSequentialKeys("")),
		buffer.WithClock(NewDeterministicClock()),
	)
}
