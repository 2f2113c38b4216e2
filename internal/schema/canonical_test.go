package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", int64(-100), "-100"},
		{"float", 0.5, "0.5"},
		{"integral float", 100.0, "100"},
		{"bool true", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"html chars", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 1, "a": 2},
		"beta":  3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalStruct(t *testing.T) {
	col := DataFrameColumn{Name: "A", Type: "int64"}

	result, err := MarshalCanonical(col)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"A","type":"int64"}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
}

func TestMarshalCanonicalSentinels(t *testing.T) {
	hp := HyperParameter{Name: "n", Value: "1", Type: "int", MinValue: UnboundedMin, MaxValue: UnboundedMax}

	result, err := MarshalCanonical(hp)
	require.NoError(t, err)
	assert.Equal(t,
		`{"max_value":1.7976931348623157e+308,"min_value":2.2250738585072014e-308,"name":"n","type":"int","value":"1"}`,
		string(result))
}
