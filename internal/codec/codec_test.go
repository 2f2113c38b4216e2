package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/testutil"
)

func TestEventRoundtrip(t *testing.T) {
	ev := schema.NewPipelineEvent(testutil.PipelineEvent())

	data, err := Marshal(ev)
	require.NoError(t, err)

	var decoded schema.Event
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, ev, decoded)
	assert.Equal(t, schema.MustDigest(ev), schema.MustDigest(decoded))
}

func TestSentinelRangeSurvives(t *testing.T) {
	hp := schema.HyperParameter{Name: "copy", Value: "true", Type: "bool", MinValue: schema.UnboundedMin, MaxValue: schema.UnboundedMax}

	data, err := Marshal(hp)
	require.NoError(t, err)

	var decoded schema.HyperParameter
	require.NoError(t, Unmarshal(data, &decoded))
	assert.True(t, decoded.Unbounded())
}

func TestMarshalDeterministic(t *testing.T) {
	m := map[string]int{"z": 1, "a": 2, "m": 3}

	first, err := Marshal(m)
	require.NoError(t, err)
	for range 10 {
		again, err := Marshal(m)
		require.NoError(t, err)
		require.True(t, bytes.Equal(first, again), "deterministic encoding violated: %x != %x", first, again)
	}
}

func TestUsesJSONFieldNames(t *testing.T) {
	data, err := Marshal(schema.DataFrameColumn{Name: "A", Type: "int64"})
	require.NoError(t, err)

	diag, err := Diagnose(data)
	require.NoError(t, err)
	assert.Equal(t, `{"name": "A", "type": "int64"}`, diag)
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"ids": []int64{1, 2}})
	require.NoError(t, err)

	var decoded any
	require.NoError(t, Unmarshal(data, &decoded))
	m, ok := decoded.(map[string]any)
	require.True(t, ok, "decoded %T, want map[string]any", decoded)
	assert.Contains(t, m, "ids")
}

func TestEncoderDecoderStream(t *testing.T) {
	records := []schema.Receipt{
		{Key: "a", EventID: 1, IDs: []int64{1, 1, 1}},
		{Key: "b", EventID: 2, IDs: []int64{2, 2, 2}},
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, r := range records {
		require.NoError(t, enc.Encode(r))
	}

	dec := NewDecoder(&buf)
	for _, want := range records {
		var got schema.Receipt
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, want, got)
	}
}

func TestCompressedRoundtrip(t *testing.T) {
	ev := schema.NewPipelineEvent(testutil.PipelineEvent())

	data, err := MarshalCompressed(ev)
	require.NoError(t, err)
	plain, err := Marshal(ev)
	require.NoError(t, err)
	assert.Less(t, len(data), len(plain))

	var decoded schema.Event
	require.NoError(t, UnmarshalCompressed(data, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestUnmarshalCompressedRejectsGarbage(t *testing.T) {
	var decoded schema.Event
	assert.Error(t, UnmarshalCompressed([]byte("not zstd"), &decoded))
}
