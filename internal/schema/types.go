package schema

import "math"

// Unassigned is the id carried by every entity that has not been synced.
const Unassigned int64 = -1

// Sentinel bounds for hyperparameters without a natural numeric range.
// Consumers tell "unbounded" apart from zero through these values.
const (
	UnboundedMin = 0x1p-1022 // smallest normal float64
	UnboundedMax = math.MaxFloat64
)

// DataFrameColumn identifies one tabular column and its storage type.
type DataFrameColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DataFrame is a point-in-time snapshot of a dataset.
type DataFrame struct {
	ID      int64             `json:"id"`
	Columns []DataFrameColumn `json:"columns"`
	NumRows int64             `json:"num_rows"`
	Tag     string            `json:"tag"`
}

// HyperParameter is one configured estimator parameter.
// Value is the stringified configured value; Type is the name of its type.
type HyperParameter struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Type     string  `json:"type"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
}

// Unbounded reports whether h carries the sentinel range.
func (h HyperParameter) Unbounded() bool {
	return h.MinValue == UnboundedMin && h.MaxValue == UnboundedMax
}

// Transformer is a snapshot of a fitted estimator.
// State is a small estimator-defined digest, never the full model weights.
type Transformer struct {
	ID    int64     `json:"id"`
	State []float64 `json:"state"`
	Type  string    `json:"type"`
	Tag   string    `json:"tag"`
}

// TransformerSpec describes how an estimator was configured for a fit.
type TransformerSpec struct {
	ID              int64            `json:"id"`
	TransformerType string           `json:"transformer_type"`
	FeatureColumns  []string         `json:"feature_columns"`
	HyperParameters []HyperParameter `json:"hyperparameters"`
	Tag             string           `json:"tag"`
}

// FitEvent records one fit call.
type FitEvent struct {
	Model          Transformer     `json:"model"`
	DF             DataFrame       `json:"df"`
	Spec           TransformerSpec `json:"spec"`
	FeatureColumns []string        `json:"feature_columns"`
}

// TransformEvent records one transform call.
type TransformEvent struct {
	Transformer  Transformer `json:"transformer"`
	OldDataFrame DataFrame   `json:"old_data_frame"`
	NewDataFrame DataFrame   `json:"new_data_frame"`
}

// SameHyperParameters reports whether a and b hold the same hyperparameters,
// ignoring order. Duplicates are counted.
func SameHyperParameters(a, b []HyperParameter) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[HyperParameter]int, len(a))
	for _, h := range a {
		counts[h]++
	}
	for _, h := range b {
		if counts[h] == 0 {
			return false
		}
		counts[h]--
	}
	return true
}

// FindHyperParameter returns the hyperparameter with the given name.
func FindHyperParameter(hps []HyperParameter, name string) (HyperParameter, bool) {
	for _, h := range hps {
		if h.Name == name {
			return h, true
		}
	}
	return HyperParameter{}, false
}
