package buffer

import (
	"sync"

	"github.com/google/uuid"
)

// KeyGenerator issues event keys. Keys must be unique per buffered event.
type KeyGenerator interface {
	Generate() string
}

// UUIDv7Generator issues time-sortable UUIDv7 keys.
// It is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7. It panics if the system random
// source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined keys in order, for tests.
type FixedGenerator struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixedGenerator creates a generator that returns keys in order.
func NewFixedGenerator(keys ...string) *FixedGenerator {
	return &FixedGenerator{keys: keys}
}

// Generate returns the next key. It panics once the keys are exhausted, so a
// test that records more events than it expected fails loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.keys) {
		panic("FixedGenerator: all keys exhausted")
	}
	k := g.keys[g.idx]
	g.idx++
	return k
}
