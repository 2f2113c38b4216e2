package testutil

import "github.com/roach88/provtrack/internal/frame"

// DigitsTag is the label carried by DigitsDataset.
const DigitsTag = "digits-dataset"

// DigitsDataset returns a 100-row dataset with two Int64 feature columns
// "A" and "B", tagged DigitsTag, and an exactly linear target
// y = 0.5*A - 0.25*B + 3. The data is identical on every call.
func DigitsDataset() (*frame.Frame, []float64) {
	X := frame.RandomInts(100, []string{"A", "B"}, 100, 42)
	X.SetTag(DigitsTag)

	a, _ := X.Column("A")
	b, _ := X.Column("B")
	y := make([]float64, len(a))
	for i := range a {
		y[i] = 0.5*a[i] - 0.25*b[i] + 3
	}
	return X, y
}
