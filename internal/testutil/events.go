package testutil

import "github.com/roach88/provtrack/internal/schema"

// FitEvent returns an unsynced leaf fit event for an estimator of type typ
// trained on a two-column frame tagged tag.
func FitEvent(typ, tag string) *schema.FitEvent {
	cols := []schema.DataFrameColumn{{Name: "A", Type: "int64"}, {Name: "B", Type: "int64"}}
	return &schema.FitEvent{
		Model: schema.Transformer{ID: schema.Unassigned, State: []float64{0}, Type: typ},
		DF:    schema.DataFrame{ID: schema.Unassigned, Columns: cols, NumRows: 100, Tag: tag},
		Spec: schema.TransformerSpec{
			ID:              schema.Unassigned,
			TransformerType: typ,
			FeatureColumns:  []string{"A", "B"},
			HyperParameters: []schema.HyperParameter{
				{Name: "copy", Value: "true", Type: "bool", MinValue: schema.UnboundedMin, MaxValue: schema.UnboundedMax},
			},
		},
		FeatureColumns: []string{"A", "B"},
	}
}

// TransformEvent returns an unsynced transform event for typ.
func TransformEvent(typ, tag string) *schema.TransformEvent {
	return &schema.TransformEvent{
		Transformer:  schema.Transformer{ID: schema.Unassigned, State: []float64{0}, Type: typ},
		OldDataFrame: schema.DataFrame{ID: schema.Unassigned, NumRows: 100, Tag: tag},
		NewDataFrame: schema.DataFrame{ID: schema.Unassigned, NumRows: 100},
	}
}

// PipelineEvent returns an unsynced PCA then LinearRegression pipeline
// event, shaped like the one recorded for the digits example.
func PipelineEvent() *schema.PipelineEvent {
	return &schema.PipelineEvent{
		PipelineFit: *FitEvent("Pipeline", DigitsTag),
		FitStages: []schema.FitStage{
			schema.LeafFitStage(FitEvent("PCA", DigitsTag)),
			schema.LeafFitStage(FitEvent("LinearRegression", "")),
		},
		TransformStages: []schema.TransformStage{
			schema.LeafTransformStage(TransformEvent("PCA", DigitsTag)),
		},
	}
}
