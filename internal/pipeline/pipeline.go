// Package pipeline chains named estimators into a composite estimator.
//
// A Pipeline fits its steps in declaration order, feeding each non-final
// step's transform output to the next step. It is itself an Estimator, so
// pipelines nest. Pipelines run uninstrumented; package instrument wraps
// them to record provenance.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/provtrack/internal/estimator"
	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/tag"
)

// TypeName is the type recorded for every pipeline.
const TypeName = "Pipeline"

// Step is one named stage of a pipeline.
type Step = estimator.Named

// Pipeline is an ordered sequence of named steps.
type Pipeline struct {
	tag.Label

	steps []Step
}

// New builds a pipeline. Step names must be non-empty, unique and must not
// contain the qualified-name separator "__".
func New(steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.New("pipeline: at least one step required")
	}
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		switch {
		case s.Name == "":
			return nil, fmt.Errorf("pipeline: step %d has no name", i)
		case strings.Contains(s.Name, "__"):
			return nil, fmt.Errorf("pipeline: step name %q must not contain \"__\"", s.Name)
		case seen[s.Name]:
			return nil, fmt.Errorf("pipeline: duplicate step name %q", s.Name)
		case s.Estimator == nil:
			return nil, fmt.Errorf("pipeline: step %q has no estimator", s.Name)
		}
		seen[s.Name] = true
	}
	return &Pipeline{steps: append([]Step(nil), steps...)}, nil
}

// MustNew is like New but panics on error.
func MustNew(steps ...Step) *Pipeline {
	p, err := New(steps...)
	if err != nil {
		panic(err)
	}
	return p
}

// Steps returns the steps in declaration order.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

func (p *Pipeline) TypeName() string { return TypeName }

// Params exposes the step list as a single parameter: a list of
// (name, estimator) tuples.
func (p *Pipeline) Params() []estimator.Param {
	list := make([]any, len(p.steps))
	for i, s := range p.steps {
		list[i] = estimator.Tuple{s.Name, s.Estimator}
	}
	return []estimator.Param{{Name: "steps", Value: list}}
}

func (p *Pipeline) SubEstimators() []estimator.Named { return p.Steps() }

// State is a constant placeholder for composites.
func (p *Pipeline) State() []float64 { return []float64{0} }

// Fit fits every step in order. Non-final steps are fit then transformed.
func (p *Pipeline) Fit(X *frame.Frame, y []float64) error {
	if err := Validate(p, false); err != nil {
		return err
	}
	_, err := p.fitThrough(X, y, false)
	return err
}

// FitTransform fits every step and transforms through all of them.
func (p *Pipeline) FitTransform(X *frame.Frame, y []float64) (*frame.Frame, error) {
	if err := Validate(p, true); err != nil {
		return nil, err
	}
	return p.fitThrough(X, y, true)
}

func (p *Pipeline) fitThrough(X *frame.Frame, y []float64, transformLast bool) (*frame.Frame, error) {
	for i, s := range p.steps {
		last := i == len(p.steps)-1
		if err := s.Estimator.Fit(X, y); err != nil {
			return nil, fmt.Errorf("step %q: fit: %w", s.Name, err)
		}
		if last && !transformLast {
			break
		}
		out, err := s.Estimator.(estimator.Transformer).Transform(X)
		if err != nil {
			return nil, fmt.Errorf("step %q: transform: %w", s.Name, err)
		}
		X = out
	}
	return X, nil
}

// Transform runs X through every step. All steps must be transformers.
func (p *Pipeline) Transform(X *frame.Frame) (*frame.Frame, error) {
	if err := Validate(p, true); err != nil {
		return nil, err
	}
	for _, s := range p.steps {
		out, err := s.Estimator.(estimator.Transformer).Transform(X)
		if err != nil {
			return nil, fmt.Errorf("step %q: transform: %w", s.Name, err)
		}
		X = out
	}
	return X, nil
}

// Predict transforms through every step but the last and predicts with the
// final step, which must be a Regressor.
func (p *Pipeline) Predict(X *frame.Frame) ([]float64, error) {
	if err := Validate(p, false); err != nil {
		return nil, err
	}
	final := p.steps[len(p.steps)-1]
	reg, ok := final.Estimator.(estimator.Regressor)
	if !ok {
		return nil, &SchemaError{Step: final.Name, Missing: "predict"}
	}
	for _, s := range p.steps[:len(p.steps)-1] {
		out, err := s.Estimator.(estimator.Transformer).Transform(X)
		if err != nil {
			return nil, fmt.Errorf("step %q: transform: %w", s.Name, err)
		}
		X = out
	}
	return reg.Predict(X)
}
