package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFitEvent(typ string) *FitEvent {
	return &FitEvent{
		Model: Transformer{ID: Unassigned, State: []float64{0}, Type: typ},
		DF: DataFrame{
			ID:      Unassigned,
			Columns: []DataFrameColumn{{Name: "A", Type: "int64"}},
			NumRows: 10,
		},
		Spec: TransformerSpec{
			ID:              Unassigned,
			TransformerType: typ,
			FeatureColumns:  []string{"A"},
			HyperParameters: []HyperParameter{{Name: "copy", Value: "true", Type: "bool", MinValue: UnboundedMin, MaxValue: UnboundedMax}},
		},
		FeatureColumns: []string{"A"},
	}
}

func testTransformEvent(typ string) *TransformEvent {
	return &TransformEvent{
		Transformer:  Transformer{ID: Unassigned, Type: typ},
		OldDataFrame: DataFrame{ID: Unassigned, NumRows: 10},
		NewDataFrame: DataFrame{ID: Unassigned, NumRows: 10},
	}
}

func testPipelineEvent() *PipelineEvent {
	return &PipelineEvent{
		PipelineFit:     *testFitEvent("Pipeline"),
		FitStages:       []FitStage{LeafFitStage(testFitEvent("PCA")), LeafFitStage(testFitEvent("LinearRegression"))},
		TransformStages: []TransformStage{LeafTransformStage(testTransformEvent("PCA"))},
	}
}

func TestSlots_FitEventOrder(t *testing.T) {
	ev := NewFitEvent(testFitEvent("PCA"))

	slots := Slots(&ev)
	require.Len(t, slots, 3)
	assert.Equal(t, SlotTransformer, slots[0].Kind)
	assert.Equal(t, SlotDataFrame, slots[1].Kind)
	assert.Equal(t, SlotSpec, slots[2].Kind)
}

func TestSlots_PipelineDepthFirst(t *testing.T) {
	inner := testPipelineEvent()
	pe := testPipelineEvent()
	pe.FitStages = append(pe.FitStages, NestedFitStage(inner))
	ev := NewPipelineEvent(pe)

	slots := Slots(&ev)
	// pipeline fit (3) + 2 leaf fits (6) + nested (3+6+3) + 1 transform (3)
	require.Len(t, slots, 24)
	assert.Same(t, &pe.PipelineFit.Model.ID, slots[0].ID)
	assert.Same(t, &inner.PipelineFit.Model.ID, slots[9].ID)
	assert.Same(t, &pe.TransformStages[0].Transform.Transformer.ID, slots[21].ID)
}

func TestApplyReceipt(t *testing.T) {
	rec := Record{Key: "k1", ID: Unassigned, Event: NewTransformEvent(testTransformEvent("PCA"))}

	err := ApplyReceipt(&rec, Receipt{Key: "k1", EventID: 7, IDs: []int64{1, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, int64(1), rec.Event.Transform.Transformer.ID)
	assert.Equal(t, int64(2), rec.Event.Transform.OldDataFrame.ID)
	assert.Equal(t, int64(3), rec.Event.Transform.NewDataFrame.ID)
	assert.True(t, Assigned(&rec.Event))
}

func TestApplyReceipt_Mismatch(t *testing.T) {
	rec := Record{Key: "k1", Event: NewTransformEvent(testTransformEvent("PCA"))}

	err := ApplyReceipt(&rec, Receipt{Key: "k1", IDs: []int64{1}})
	assert.Error(t, err)

	err = ApplyReceipt(&rec, Receipt{Key: "other", IDs: []int64{1, 2, 3}})
	assert.Error(t, err)
	assert.False(t, Assigned(&rec.Event))
}

func TestClone_Independent(t *testing.T) {
	ev := NewPipelineEvent(testPipelineEvent())
	c := ev.Clone()

	c.Pipeline.FitStages[0].Fit.Spec.HyperParameters[0].Value = "false"
	c.Pipeline.PipelineFit.DF.Columns[0].Name = "Z"
	c.Pipeline.PipelineFit.Model.ID = 42

	assert.Equal(t, "true", ev.Pipeline.FitStages[0].Fit.Spec.HyperParameters[0].Value)
	assert.Equal(t, "A", ev.Pipeline.PipelineFit.DF.Columns[0].Name)
	assert.Equal(t, Unassigned, ev.Pipeline.PipelineFit.Model.ID)
}

func TestSameHyperParameters(t *testing.T) {
	a := []HyperParameter{{Name: "x", Value: "1"}, {Name: "y", Value: "2"}}
	b := []HyperParameter{{Name: "y", Value: "2"}, {Name: "x", Value: "1"}}
	c := []HyperParameter{{Name: "x", Value: "1"}, {Name: "x", Value: "1"}}

	assert.True(t, SameHyperParameters(a, b))
	assert.False(t, SameHyperParameters(a, c))
	assert.False(t, SameHyperParameters(a, a[:1]))
}

func TestEventValidate(t *testing.T) {
	assert.NoError(t, NewPipelineEvent(testPipelineEvent()).Validate())
	assert.Error(t, Event{Kind: EventFit}.Validate())
	assert.Error(t, Event{Kind: "bogus"}.Validate())

	pe := testPipelineEvent()
	pe.FitStages = append(pe.FitStages, FitStage{Kind: StageNested})
	assert.Error(t, NewPipelineEvent(pe).Validate())
}

func TestDigest_IgnoresIDs(t *testing.T) {
	ev := NewPipelineEvent(testPipelineEvent())
	before := MustDigest(ev)

	stamped := ev.Clone()
	for i, s := range Slots(&stamped) {
		*s.ID = int64(i + 1)
	}

	assert.Equal(t, before, MustDigest(stamped))
}

func TestDigest_ContentSensitive(t *testing.T) {
	a := NewPipelineEvent(testPipelineEvent())
	b := a.Clone()
	b.Pipeline.PipelineFit.Model.Tag = "changed"

	assert.NotEqual(t, MustDigest(a), MustDigest(b))
}

func TestHyperParameterUnbounded(t *testing.T) {
	assert.True(t, HyperParameter{MinValue: UnboundedMin, MaxValue: UnboundedMax}.Unbounded())
	assert.False(t, HyperParameter{MinValue: 0, MaxValue: UnboundedMax}.Unbounded())
}
