package frame

import "math/rand/v2"

// RandomInts builds a labeled frame of uniformly distributed integers in
// [0, high) with one Int64 column per name. The same seed yields the same frame.
func RandomInts(rows int, names []string, high int, seed uint64) *Frame {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	cols := make([]Column, len(names))
	for j, name := range names {
		cols[j] = Column{Name: name, DType: Int64, Values: make([]float64, rows)}
	}
	for i := 0; i < rows; i++ {
		for j := range cols {
			cols[j].Values[i] = float64(rng.IntN(high))
		}
	}
	return MustNew(cols...)
}
