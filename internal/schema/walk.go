package schema

import "fmt"

// SlotKind names the entity table an id slot belongs to.
type SlotKind string

const (
	SlotDataFrame   SlotKind = "dataframe"
	SlotTransformer SlotKind = "transformer"
	SlotSpec        SlotKind = "transformer_spec"
)

// Slot is one id-bearing entity inside an event tree.
// Exactly one of the entity pointers is set, matching Kind.
type Slot struct {
	Kind        SlotKind
	ID          *int64
	DataFrame   *DataFrame
	Transformer *Transformer
	Spec        *TransformerSpec
}

// Slots returns every id-bearing entity of ev in depth-first order.
//
// Fit events contribute model, df, spec. Transform events contribute
// transformer, old frame, new frame. Pipeline events contribute the
// pipeline fit, then each fit stage, then each transform stage, recursing
// into nested stages in place. Clients and backends both rely on this order
// to map acknowledged ids back onto the tree.
func Slots(ev *Event) []Slot {
	var slots []Slot
	switch ev.Kind {
	case EventFit:
		slots = fitSlots(slots, ev.Fit)
	case EventTransform:
		slots = transformSlots(slots, ev.Transform)
	case EventPipeline:
		slots = pipelineSlots(slots, ev.Pipeline)
	}
	return slots
}

func fitSlots(slots []Slot, fe *FitEvent) []Slot {
	if fe == nil {
		return slots
	}
	return append(slots,
		Slot{Kind: SlotTransformer, ID: &fe.Model.ID, Transformer: &fe.Model},
		Slot{Kind: SlotDataFrame, ID: &fe.DF.ID, DataFrame: &fe.DF},
		Slot{Kind: SlotSpec, ID: &fe.Spec.ID, Spec: &fe.Spec},
	)
}

func transformSlots(slots []Slot, te *TransformEvent) []Slot {
	if te == nil {
		return slots
	}
	return append(slots,
		Slot{Kind: SlotTransformer, ID: &te.Transformer.ID, Transformer: &te.Transformer},
		Slot{Kind: SlotDataFrame, ID: &te.OldDataFrame.ID, DataFrame: &te.OldDataFrame},
		Slot{Kind: SlotDataFrame, ID: &te.NewDataFrame.ID, DataFrame: &te.NewDataFrame},
	)
}

func pipelineSlots(slots []Slot, pe *PipelineEvent) []Slot {
	if pe == nil {
		return slots
	}
	slots = fitSlots(slots, &pe.PipelineFit)
	for _, st := range pe.FitStages {
		if st.Kind == StageNested {
			slots = pipelineSlots(slots, st.Nested)
		} else {
			slots = fitSlots(slots, st.Fit)
		}
	}
	for _, st := range pe.TransformStages {
		if st.Kind == StageNested {
			slots = pipelineSlots(slots, st.Nested)
		} else {
			slots = transformSlots(slots, st.Transform)
		}
	}
	return slots
}

// ApplyReceipt stamps the acknowledged ids onto r.
// The receipt must cover exactly the slots of r's event.
func ApplyReceipt(r *Record, rc Receipt) error {
	if rc.Key != r.Key {
		return fmt.Errorf("receipt key %q does not match record %q", rc.Key, r.Key)
	}
	slots := Slots(&r.Event)
	if len(slots) != len(rc.IDs) {
		return fmt.Errorf("receipt for %q carries %d ids, event has %d slots", r.Key, len(rc.IDs), len(slots))
	}
	for i, s := range slots {
		*s.ID = rc.IDs[i]
	}
	r.ID = rc.EventID
	return nil
}

// Assigned reports whether every id in ev has been stamped.
func Assigned(ev *Event) bool {
	for _, s := range Slots(ev) {
		if *s.ID == Unassigned {
			return false
		}
	}
	return true
}
