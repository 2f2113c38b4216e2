package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validates(t *testing.T) {
	_, err := New()
	assert.Error(t, err)

	_, err = New(Column{Name: "", DType: Int64})
	assert.Error(t, err)

	_, err = New(Column{Name: "a", DType: Int64}, Column{Name: "a", DType: Int64})
	assert.Error(t, err)

	_, err = New(Column{Name: "a", DType: "string"})
	assert.Error(t, err)

	_, err = New(
		Column{Name: "a", DType: Int64, Values: []float64{1, 2}},
		Column{Name: "b", DType: Int64, Values: []float64{1}},
	)
	assert.Error(t, err)
}

func TestNew_CopiesInput(t *testing.T) {
	vals := []float64{1, 2, 3}
	f := MustNew(Column{Name: "a", DType: Int64, Values: vals})
	vals[0] = 99

	got, ok := f.Column("a")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, got)
	assert.True(t, f.Labeled())
	assert.Equal(t, 3, f.NumRows())
}

func TestFromMatrix_Positional(t *testing.T) {
	f, err := FromMatrix([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	assert.False(t, f.Labeled())
	assert.Equal(t, []string{"0", "1"}, f.ColumnNames())
	assert.Equal(t, 3, f.NumRows())
	for _, c := range f.Columns() {
		assert.Equal(t, Float64, c.DType)
	}
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}, f.Matrix())
	assert.Equal(t, "", f.Tag())
}

func TestFromMatrix_Ragged(t *testing.T) {
	_, err := FromMatrix([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	f := MustNew(
		Column{Name: "a", DType: Int64, Values: []float64{1, 2}},
		Column{Name: "y", DType: Float64, Values: []float64{0.5, 1.5}},
	)
	f.SetTag("train")

	x, y, err := f.Split("y")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, x.ColumnNames())
	assert.Equal(t, []float64{0.5, 1.5}, y)
	assert.Equal(t, "train", x.Tag())

	_, _, err = f.Split("missing")
	assert.Error(t, err)
}

func TestReadCSV_InfersTypes(t *testing.T) {
	in := "a, b ,c\n1,2.5,3\n4,5,6\n"
	f, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	cols := f.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, "a", cols[0].Name)
	assert.Equal(t, Int64, cols[0].DType)
	assert.Equal(t, "b", cols[1].Name)
	assert.Equal(t, Float64, cols[1].DType)
	assert.Equal(t, []float64{2.5, 5}, cols[1].Values)
	assert.Equal(t, Int64, cols[2].DType)
	assert.Equal(t, 2, f.NumRows())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a\nx\n"))
	assert.ErrorContains(t, err, "not numeric")
}

func TestRandomInts_Deterministic(t *testing.T) {
	a := RandomInts(100, []string{"A", "B"}, 100, 7)
	b := RandomInts(100, []string{"A", "B"}, 100, 7)

	assert.Equal(t, a.Matrix(), b.Matrix())
	assert.Equal(t, 100, a.NumRows())
	for _, c := range a.Columns() {
		assert.Equal(t, Int64, c.DType)
		for _, v := range c.Values {
			assert.True(t, v >= 0 && v < 100)
		}
	}
}
