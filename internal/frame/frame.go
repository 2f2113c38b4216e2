// Package frame provides the minimal tabular dataset that pipelines consume.
//
// A Frame is column-major. Labeled frames carry named columns with a storage
// type and inherit identity from their source (a CSV header, a caller-built
// schema). Unlabeled frames are bare matrices produced by transforms; their
// columns are named positionally ("0", "1", ...) and always hold float64.
package frame

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/provtrack/internal/tag"
)

// DType is the storage type name of a column.
type DType string

const (
	Int64   DType = "int64"
	Float64 DType = "float64"
)

// Column is one named column. Int64 columns store integral values in Values.
type Column struct {
	Name   string
	DType  DType
	Values []float64
}

// Frame is a tabular dataset. Pass frames by pointer: the embedded label
// must not be copied.
type Frame struct {
	tag.Label

	columns []Column
	rows    int
	labeled bool
}

// New builds a labeled frame from columns.
// Column names must be non-empty and unique, and every column must have the
// same number of rows.
func New(cols ...Column) (*Frame, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("frame: at least one column required")
	}
	seen := make(map[string]bool, len(cols))
	rows := len(cols[0].Values)
	out := make([]Column, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("frame: column %d has no name", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("frame: duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if c.DType != Int64 && c.DType != Float64 {
			return nil, fmt.Errorf("frame: column %q has unsupported dtype %q", c.Name, c.DType)
		}
		if len(c.Values) != rows {
			return nil, fmt.Errorf("frame: column %q has %d rows, want %d", c.Name, len(c.Values), rows)
		}
		out[i] = Column{Name: c.Name, DType: c.DType, Values: slices.Clone(c.Values)}
	}
	return &Frame{columns: out, rows: rows, labeled: true}, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(cols ...Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// FromMatrix builds an unlabeled frame from row-major data.
// All rows must have the same width.
func FromMatrix(m [][]float64) (*Frame, error) {
	width := 0
	if len(m) > 0 {
		width = len(m[0])
	}
	cols := make([]Column, width)
	for j := range cols {
		cols[j] = Column{Name: strconv.Itoa(j), DType: Float64, Values: make([]float64, len(m))}
	}
	for i, row := range m {
		if len(row) != width {
			return nil, fmt.Errorf("frame: row %d has %d values, want %d", i, len(row), width)
		}
		for j, v := range row {
			cols[j].Values[i] = v
		}
	}
	return &Frame{columns: cols, rows: len(m)}, nil
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.columns) }

// Labeled reports whether the frame's columns carry inherited names.
func (f *Frame) Labeled() bool { return f.labeled }

// Columns returns a copy of the column headers and data.
func (f *Frame) Columns() []Column {
	out := make([]Column, len(f.columns))
	for i, c := range f.columns {
		out[i] = Column{Name: c.Name, DType: c.DType, Values: slices.Clone(c.Values)}
	}
	return out
}

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	for _, c := range f.columns {
		if c.Name == name {
			return slices.Clone(c.Values), true
		}
	}
	return nil, false
}

// Matrix returns the data in row-major order.
func (f *Frame) Matrix() [][]float64 {
	m := make([][]float64, f.rows)
	for i := range m {
		row := make([]float64, len(f.columns))
		for j, c := range f.columns {
			row[j] = c.Values[i]
		}
		m[i] = row
	}
	return m
}

// Split separates the target column from the features.
// The feature frame keeps the remaining columns, labeling and tag.
func (f *Frame) Split(target string) (*Frame, []float64, error) {
	idx := slices.IndexFunc(f.columns, func(c Column) bool { return c.Name == target })
	if idx < 0 {
		return nil, nil, fmt.Errorf("frame: no column %q", target)
	}
	if len(f.columns) == 1 {
		return nil, nil, fmt.Errorf("frame: splitting %q leaves no feature columns", target)
	}
	y := slices.Clone(f.columns[idx].Values)

	rest := make([]Column, 0, len(f.columns)-1)
	for i, c := range f.columns {
		if i != idx {
			rest = append(rest, Column{Name: c.Name, DType: c.DType, Values: slices.Clone(c.Values)})
		}
	}
	x := &Frame{columns: rest, rows: f.rows, labeled: f.labeled}
	x.SetTag(f.Tag())
	return x, y, nil
}
