// Package estimator defines the capabilities an instrumented estimator
// exposes and ships a handful of reference estimators.
//
// Instrumentation never inspects estimator internals. Everything it records
// comes from the explicit capabilities below: Params for configuration,
// State for the fitted summary, SubEstimators for composites.
package estimator

import (
	"errors"

	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/tag"
)

// ErrNotFitted is returned by Transform and Predict before Fit succeeded.
var ErrNotFitted = errors.New("estimator is not fitted")

// Range is a numeric bound on a parameter's legal values.
type Range struct {
	Min float64
	Max float64
}

// Param is one configured parameter.
//
// Value holds nil, bool, int, int64, float64, string, []any, Tuple, or
// another Estimator. Range is nil when the parameter has no numeric bound.
type Param struct {
	Name  string
	Value any
	Range *Range
}

// Tuple is a fixed-arity group of parameter values, such as a named step.
type Tuple []any

// Estimator is anything that learns from a dataset.
type Estimator interface {
	tag.Tagger

	// TypeName is the estimator's type as recorded in events.
	TypeName() string
	// Params lists the configuration in a stable order.
	Params() []Param
	Fit(X *frame.Frame, y []float64) error
	// State returns a small fixed-size summary of the fitted state.
	State() []float64
}

// Transformer is an Estimator that can map a dataset to a new one.
type Transformer interface {
	Estimator
	Transform(X *frame.Frame) (*frame.Frame, error)
}

// Regressor is an Estimator that predicts a target.
type Regressor interface {
	Estimator
	Predict(X *frame.Frame) ([]float64, error)
}

// Named pairs a sub-estimator with the name it is addressed by.
type Named struct {
	Name      string
	Estimator Estimator
}

// Composite is an Estimator built from named sub-estimators.
type Composite interface {
	Estimator
	SubEstimators() []Named
}

// Configurable estimators accept parameters by name.
type Configurable interface {
	SetParam(name string, value any) error
}

// IsTransformer reports whether e can transform.
func IsTransformer(e Estimator) bool {
	_, ok := e.(Transformer)
	return ok
}
