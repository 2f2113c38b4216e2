package instrument

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/provtrack/internal/estimator"
	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/params"
	"github.com/roach88/provtrack/internal/schema"
)

// snapshotInput records a dataset as a step consumes it. Unlabeled frames
// have no inherited column identity, so their columns are left empty.
func snapshotInput(f *frame.Frame) schema.DataFrame {
	df := schema.DataFrame{
		ID:      schema.Unassigned,
		Columns: []schema.DataFrameColumn{},
		NumRows: int64(f.NumRows()),
		Tag:     f.Tag(),
	}
	if f.Labeled() {
		df.Columns = columns(f)
	}
	return df
}

// snapshotOutput records a dataset a transform produced. Unlabeled output
// is recorded with its positional column names.
func snapshotOutput(f *frame.Frame) schema.DataFrame {
	return schema.DataFrame{
		ID:      schema.Unassigned,
		Columns: columns(f),
		NumRows: int64(f.NumRows()),
		Tag:     f.Tag(),
	}
}

func columns(f *frame.Frame) []schema.DataFrameColumn {
	cols := f.Columns()
	out := make([]schema.DataFrameColumn, len(cols))
	for i, c := range cols {
		out[i] = schema.DataFrameColumn{Name: c.Name, Type: string(c.DType)}
	}
	return out
}

func featureColumns(f *frame.Frame) []string {
	if !f.Labeled() {
		return []string{}
	}
	return f.ColumnNames()
}

func snapshotTransformer(e estimator.Estimator) schema.Transformer {
	return schema.Transformer{
		ID:    schema.Unassigned,
		State: e.State(),
		Type:  e.TypeName(),
		Tag:   e.Tag(),
	}
}

// capture accumulates the first introspection failure of one call. Once it
// has failed, spec building stops but the computation carries on.
type capture struct {
	err  error
	step string
}

func (c *capture) failed() bool { return c.err != nil }

// model snapshots e after fitting. A state value that is NaN or infinite
// fails the capture at path.
func (c *capture) model(e estimator.Estimator, path string) schema.Transformer {
	t := snapshotTransformer(e)
	if c.failed() {
		return t
	}
	for i, v := range t.State {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			c.err = fmt.Errorf("%s state[%d] = %v: %w", t.Type, i, v, ErrNonFiniteState)
			c.step = path
			break
		}
	}
	return t
}

// spec builds e's TransformerSpec. path is e's qualified name within the
// outermost pipeline, used to qualify the failing parameter.
func (c *capture) spec(e estimator.Estimator, path string, features []string) schema.TransformerSpec {
	spec := schema.TransformerSpec{
		ID:              schema.Unassigned,
		TransformerType: e.TypeName(),
		FeatureColumns:  features,
		HyperParameters: []schema.HyperParameter{},
		Tag:             e.Tag(),
	}
	if c.failed() {
		return spec
	}
	hps, err := params.Extract(e)
	if err != nil {
		var ce *params.ConfigError
		if path != "" && errors.As(err, &ce) {
			err = &params.ConfigError{Param: params.Qualify(path, ce.Param), Type: ce.Type}
		}
		c.err = err
		c.step = path
		return spec
	}
	if hps != nil {
		spec.HyperParameters = hps
	}
	return spec
}
