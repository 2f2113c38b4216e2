package schema

import "slices"

// Clone returns a deep copy of df.
func (df DataFrame) Clone() DataFrame {
	df.Columns = slices.Clone(df.Columns)
	return df
}

// Clone returns a deep copy of t.
func (t Transformer) Clone() Transformer {
	t.State = slices.Clone(t.State)
	return t
}

// Clone returns a deep copy of s.
func (s TransformerSpec) Clone() TransformerSpec {
	s.FeatureColumns = slices.Clone(s.FeatureColumns)
	s.HyperParameters = slices.Clone(s.HyperParameters)
	return s
}

// Clone returns a deep copy of fe.
func (fe *FitEvent) Clone() *FitEvent {
	if fe == nil {
		return nil
	}
	return &FitEvent{
		Model:          fe.Model.Clone(),
		DF:             fe.DF.Clone(),
		Spec:           fe.Spec.Clone(),
		FeatureColumns: slices.Clone(fe.FeatureColumns),
	}
}

// Clone returns a deep copy of te.
func (te *TransformEvent) Clone() *TransformEvent {
	if te == nil {
		return nil
	}
	return &TransformEvent{
		Transformer:  te.Transformer.Clone(),
		OldDataFrame: te.OldDataFrame.Clone(),
		NewDataFrame: te.NewDataFrame.Clone(),
	}
}

// Clone returns a deep copy of pe, including nested stages.
func (pe *PipelineEvent) Clone() *PipelineEvent {
	if pe == nil {
		return nil
	}
	out := &PipelineEvent{
		PipelineFit: *pe.PipelineFit.Clone(),
	}
	if pe.FitStages != nil {
		out.FitStages = make([]FitStage, len(pe.FitStages))
		for i, st := range pe.FitStages {
			out.FitStages[i] = FitStage{Kind: st.Kind, Fit: st.Fit.Clone(), Nested: st.Nested.Clone()}
		}
	}
	if pe.TransformStages != nil {
		out.TransformStages = make([]TransformStage, len(pe.TransformStages))
		for i, st := range pe.TransformStages {
			out.TransformStages[i] = TransformStage{Kind: st.Kind, Transform: st.Transform.Clone(), Nested: st.Nested.Clone()}
		}
	}
	return out
}

// Clone returns a deep copy of e.
func (e Event) Clone() Event {
	return Event{
		Kind:      e.Kind,
		Fit:       e.Fit.Clone(),
		Transform: e.Transform.Clone(),
		Pipeline:  e.Pipeline.Clone(),
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Event = r.Event.Clone()
	return r
}
