package schema

import "errors"

// StageKind discriminates the two variants of a pipeline stage.
type StageKind string

const (
	// StageLeaf holds a single FitEvent or TransformEvent.
	StageLeaf StageKind = "leaf"
	// StageNested holds the PipelineEvent of a composite step.
	StageNested StageKind = "nested"
)

// FitStage is one step's fit record inside a PipelineEvent.
// Exactly one of Fit or Nested is set, as selected by Kind.
type FitStage struct {
	Kind   StageKind      `json:"kind"`
	Fit    *FitEvent      `json:"fe,omitempty"`
	Nested *PipelineEvent `json:"nested,omitempty"`
}

// TransformStage is one step's transform record inside a PipelineEvent.
// Exactly one of Transform or Nested is set, as selected by Kind.
type TransformStage struct {
	Kind      StageKind       `json:"kind"`
	Transform *TransformEvent `json:"te,omitempty"`
	Nested    *PipelineEvent  `json:"nested,omitempty"`
}

// PipelineEvent is the event tree recorded for one composite pipeline fit.
type PipelineEvent struct {
	PipelineFit     FitEvent         `json:"pipeline_fit"`
	FitStages       []FitStage       `json:"fit_stages"`
	TransformStages []TransformStage `json:"transform_stages"`
}

// LeafFitStage wraps a FitEvent.
func LeafFitStage(fe *FitEvent) FitStage {
	return FitStage{Kind: StageLeaf, Fit: fe}
}

// NestedFitStage wraps the event of a composite step.
func NestedFitStage(pe *PipelineEvent) FitStage {
	return FitStage{Kind: StageNested, Nested: pe}
}

// LeafTransformStage wraps a TransformEvent.
func LeafTransformStage(te *TransformEvent) TransformStage {
	return TransformStage{Kind: StageLeaf, Transform: te}
}

// NestedTransformStage wraps the event of a composite step.
func NestedTransformStage(pe *PipelineEvent) TransformStage {
	return TransformStage{Kind: StageNested, Nested: pe}
}

// EventKind discriminates top-level buffered events.
type EventKind string

const (
	EventFit       EventKind = "fit"
	EventTransform EventKind = "transform"
	EventPipeline  EventKind = "pipeline"
)

// Event is a completed top-level provenance event.
// Exactly one payload pointer is set, as selected by Kind.
type Event struct {
	Kind      EventKind       `json:"kind"`
	Fit       *FitEvent       `json:"fit,omitempty"`
	Transform *TransformEvent `json:"transform,omitempty"`
	Pipeline  *PipelineEvent  `json:"pipeline,omitempty"`
}

// NewFitEvent wraps a FitEvent as a top-level event.
func NewFitEvent(fe *FitEvent) Event {
	return Event{Kind: EventFit, Fit: fe}
}

// NewTransformEvent wraps a TransformEvent as a top-level event.
func NewTransformEvent(te *TransformEvent) Event {
	return Event{Kind: EventTransform, Transform: te}
}

// NewPipelineEvent wraps a PipelineEvent as a top-level event.
func NewPipelineEvent(pe *PipelineEvent) Event {
	return Event{Kind: EventPipeline, Pipeline: pe}
}

// Validate checks that the discriminants match the populated payloads.
func (e Event) Validate() error {
	switch e.Kind {
	case EventFit:
		if e.Fit == nil {
			return errors.New("fit event without payload")
		}
	case EventTransform:
		if e.Transform == nil {
			return errors.New("transform event without payload")
		}
	case EventPipeline:
		if e.Pipeline == nil {
			return errors.New("pipeline event without payload")
		}
		return e.Pipeline.validate()
	default:
		return errors.New("unknown event kind " + string(e.Kind))
	}
	return nil
}

func (pe *PipelineEvent) validate() error {
	for _, st := range pe.FitStages {
		switch st.Kind {
		case StageLeaf:
			if st.Fit == nil {
				return errors.New("leaf fit stage without fit event")
			}
		case StageNested:
			if st.Nested == nil {
				return errors.New("nested fit stage without pipeline event")
			}
			if err := st.Nested.validate(); err != nil {
				return err
			}
		default:
			return errors.New("unknown stage kind " + string(st.Kind))
		}
	}
	for _, st := range pe.TransformStages {
		switch st.Kind {
		case StageLeaf:
			if st.Transform == nil {
				return errors.New("leaf transform stage without transform event")
			}
		case StageNested:
			if st.Nested == nil {
				return errors.New("nested transform stage without pipeline event")
			}
			if err := st.Nested.validate(); err != nil {
				return err
			}
		default:
			return errors.New("unknown stage kind " + string(st.Kind))
		}
	}
	return nil
}

// Record is a buffered event together with its delivery envelope.
//
// Key is unique per recorded event and is how backends deduplicate
// resubmissions. Seq is the logical clock value at record time.
// ID is the backend-assigned event id, Unassigned until synced.
type Record struct {
	Key   string `json:"key"`
	Seq   int64  `json:"seq"`
	ID    int64  `json:"id"`
	Event Event  `json:"event"`
}

// Receipt is a backend's acknowledgement of one record.
// IDs are listed in Slots order for the acknowledged event.
type Receipt struct {
	Key     string  `json:"key"`
	EventID int64   `json:"event_id"`
	IDs     []int64 `json:"ids"`
}

// ErrKeyConflict is returned by backends when an already-synced key is
// resubmitted with different content.
var ErrKeyConflict = errors.New("event key already synced with different content")

// ErrNotFound is returned by backend read APIs for keys that were never
// synced.
var ErrNotFound = errors.New("event not found")
