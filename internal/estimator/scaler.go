package estimator

import (
	"fmt"
	"math"

	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/tag"
)

// StandardScaler removes the mean and scales to unit variance.
// Unlike PCA it keeps column identity: the output has the input's names.
type StandardScaler struct {
	tag.Label

	Copy     bool
	WithMean bool
	WithStd  bool

	means []float64
	stds  []float64
}

// NewStandardScaler returns a scaler that centers and scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{Copy: true, WithMean: true, WithStd: true}
}

func (s *StandardScaler) TypeName() string { return "StandardScaler" }

func (s *StandardScaler) Params() []Param {
	return []Param{
		{Name: "copy", Value: s.Copy},
		{Name: "with_mean", Value: s.WithMean},
		{Name: "with_std", Value: s.WithStd},
	}
}

func (s *StandardScaler) SetParam(name string, value any) error {
	var err error
	switch name {
	case "copy":
		s.Copy, err = asBool(name, value)
	case "with_mean":
		s.WithMean, err = asBool(name, value)
	case "with_std":
		s.WithStd, err = asBool(name, value)
	default:
		return &UnknownParamError{Type: s.TypeName(), Name: name}
	}
	return err
}

func (s *StandardScaler) State() []float64 { return []float64{0} }

func (s *StandardScaler) Fit(X *frame.Frame, _ []float64) error {
	if X.NumRows() == 0 {
		return fmt.Errorf("standard scaler: empty input")
	}
	d := X.NumCols()
	rows := X.Matrix()
	means := columnMeans(rows, d)
	stds := make([]float64, d)
	for _, row := range rows {
		for j := 0; j < d; j++ {
			diff := row[j] - means[j]
			stds[j] += diff * diff
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / float64(len(rows)))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	s.means, s.stds = means, stds
	return nil
}

func (s *StandardScaler) Transform(X *frame.Frame) (*frame.Frame, error) {
	if s.means == nil {
		return nil, ErrNotFitted
	}
	if X.NumCols() != len(s.means) {
		return nil, fmt.Errorf("standard scaler: fitted on %d features, got %d", len(s.means), X.NumCols())
	}
	cols := X.Columns()
	for j := range cols {
		cols[j].DType = frame.Float64
		for i, v := range cols[j].Values {
			if s.WithMean {
				v -= s.means[j]
			}
			if s.WithStd {
				v /= s.stds[j]
			}
			cols[j].Values[i] = v
		}
	}
	if !X.Labeled() {
		return frame.FromMatrix(transpose(cols))
	}
	return frame.New(cols...)
}

func transpose(cols []frame.Column) [][]float64 {
	if len(cols) == 0 {
		return nil
	}
	out := make([][]float64, len(cols[0].Values))
	for i := range out {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.Values[i]
		}
		out[i] = row
	}
	return out
}
