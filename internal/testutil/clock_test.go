package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/provtrack/internal/schema"
)

func TestDeterministicClock_NextAndReset(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				clock.Next()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), clock.Current())
}

func TestSequentialKeys(t *testing.T) {
	g := NewSequentialKeys("")
	assert.Equal(t, "evt-1", g.Generate())
	assert.Equal(t, "evt-2", g.Generate())

	assert.Equal(t, "run-1", NewSequentialKeys("run").Generate())
}

func TestNewBuffer_Deterministic(t *testing.T) {
	for i := 0; i < 2; i++ {
		rec := NewBuffer().Record(schema.NewFitEvent(&schema.FitEvent{}))
		assert.Equal(t, "evt-1", rec.Key)
		assert.Equal(t, int64(1), rec.Seq)
	}
}

func TestDigitsDataset(t *testing.T) {
	X, y := DigitsDataset()
	assert.Equal(t, 100, X.NumRows())
	assert.Equal(t, []string{"A", "B"}, X.ColumnNames())
	assert.Equal(t, DigitsTag, X.Tag())
	assert.Len(t, y, 100)

	again, _ := DigitsDataset()
	assert.Equal(t, X.Matrix(), again.Matrix())
}
