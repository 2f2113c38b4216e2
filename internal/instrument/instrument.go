package instrument

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/provtrack/internal/estimator"
	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/metrics"
	"github.com/roach88/provtrack/internal/params"
	"github.com/roach88/provtrack/internal/pipeline"
	"github.com/roach88/provtrack/internal/schema"
)

// Recorder accepts finished events. *buffer.Buffer implements it.
type Recorder interface {
	Record(ev schema.Event) schema.Record
}

// Instrumentor records provenance for fit and transform calls.
// It holds no per-call state and is safe for concurrent use when its
// Recorder is.
type Instrumentor struct {
	recorder Recorder
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Instrumentor.
type Option func(*Instrumentor)

// WithLogger sets the logger used for capture warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(in *Instrumentor) { in.logger = l }
}

// WithMetrics counts capture failures in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(in *Instrumentor) { in.metrics = m }
}

// New creates an Instrumentor that records into rec.
func New(rec Recorder, opts ...Option) *Instrumentor {
	in := &Instrumentor{recorder: rec, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// FitPipeline fits p on X and y and records the resulting PipelineEvent.
//
// The returned event is the caller's copy; the recorded one lives in the
// Recorder. On a capture failure p is still fully fitted.
func (in *Instrumentor) FitPipeline(p *pipeline.Pipeline, X *frame.Frame, y []float64) (*schema.PipelineEvent, error) {
	if err := pipeline.Validate(p, false); err != nil {
		return nil, schemaMismatch(err)
	}

	c := &capture{}
	ev, _, err := in.fitPipeline(c, p, X, y, false, "")
	if err != nil {
		return nil, err
	}
	if c.failed() {
		return nil, in.captureFailed(c, "fit", p.Tag())
	}

	rec := in.recorder.Record(schema.NewPipelineEvent(ev))
	in.logger.Debug().
		Str("key", rec.Key).
		Int64("seq", rec.Seq).
		Int("fit_stages", len(ev.FitStages)).
		Int("transform_stages", len(ev.TransformStages)).
		Msg("pipeline fit recorded")
	return ev, nil
}

// fitPipeline fits p step by step and builds its event. When transformLast
// is set the final step is transformed too and the pipeline's output is
// returned; nested non-final pipelines run this way.
func (in *Instrumentor) fitPipeline(c *capture, p *pipeline.Pipeline, X *frame.Frame, y []float64, transformLast bool, path string) (*schema.PipelineEvent, *frame.Frame, error) {
	steps := p.Steps()
	ev := &schema.PipelineEvent{
		FitStages:       make([]schema.FitStage, 0, len(steps)),
		TransformStages: make([]schema.TransformStage, 0, len(steps)),
	}
	input := snapshotInput(X)
	inputFeatures := featureColumns(X)

	cur := X
	for i, s := range steps {
		stepPath := qualify(path, s.Name)
		transform := i < len(steps)-1 || transformLast

		if inner, ok := s.Estimator.(*pipeline.Pipeline); ok {
			nested, out, err := in.fitPipeline(c, inner, cur, y, transform, stepPath)
			if err != nil {
				return nil, nil, err
			}
			ev.FitStages = append(ev.FitStages, schema.NestedFitStage(nested))
			if transform {
				ev.TransformStages = append(ev.TransformStages, schema.NestedTransformStage(nested.Clone()))
				cur = out
			}
			continue
		}

		pre := snapshotInput(cur)
		features := featureColumns(cur)
		if err := s.Estimator.Fit(cur, y); err != nil {
			return nil, nil, fmt.Errorf("step %q: fit: %w", stepPath, err)
		}
		model := c.model(s.Estimator, stepPath)
		ev.FitStages = append(ev.FitStages, schema.LeafFitStage(&schema.FitEvent{
			Model:          model,
			DF:             pre,
			Spec:           c.spec(s.Estimator, stepPath, features),
			FeatureColumns: features,
		}))

		if !transform {
			continue
		}
		out, err := s.Estimator.(estimator.Transformer).Transform(cur)
		if err != nil {
			return nil, nil, fmt.Errorf("step %q: transform: %w", stepPath, err)
		}
		ev.TransformStages = append(ev.TransformStages, schema.LeafTransformStage(&schema.TransformEvent{
			Transformer:  model.Clone(),
			OldDataFrame: pre.Clone(),
			NewDataFrame: snapshotOutput(out),
		}))
		cur = out
	}

	ev.PipelineFit = schema.FitEvent{
		Model:          c.model(p, path),
		DF:             input,
		Spec:           c.spec(p, path, inputFeatures),
		FeatureColumns: inputFeatures,
	}
	return ev, cur, nil
}

// TransformPipeline runs X through every step of p and records one
// TransformEvent for the whole pipeline.
func (in *Instrumentor) TransformPipeline(p *pipeline.Pipeline, X *frame.Frame) (*frame.Frame, *schema.TransformEvent, error) {
	if err := pipeline.Validate(p, true); err != nil {
		return nil, nil, schemaMismatch(err)
	}
	return in.transform(p, X)
}

// Fit fits a single estimator and records a FitEvent.
// Pipelines must go through FitPipeline so their stages are captured.
func (in *Instrumentor) Fit(e estimator.Estimator, X *frame.Frame, y []float64) (*schema.FitEvent, error) {
	if _, ok := e.(*pipeline.Pipeline); ok {
		return nil, errors.New("instrument: pipelines are fit with FitPipeline")
	}

	pre := snapshotInput(X)
	features := featureColumns(X)
	if err := e.Fit(X, y); err != nil {
		return nil, fmt.Errorf("fit %s: %w", e.TypeName(), err)
	}

	c := &capture{}
	ev := &schema.FitEvent{
		Model:          c.model(e, ""),
		DF:             pre,
		Spec:           c.spec(e, "", features),
		FeatureColumns: features,
	}
	if c.failed() {
		return nil, in.captureFailed(c, "fit", e.Tag())
	}

	rec := in.recorder.Record(schema.NewFitEvent(ev))
	in.logger.Debug().Str("key", rec.Key).Str("type", e.TypeName()).Msg("fit recorded")
	return ev, nil
}

// Transform transforms X with e and records a TransformEvent.
// e must be a Transformer; otherwise nothing runs.
func (in *Instrumentor) Transform(e estimator.Estimator, X *frame.Frame) (*frame.Frame, *schema.TransformEvent, error) {
	if p, ok := e.(*pipeline.Pipeline); ok {
		return in.TransformPipeline(p, X)
	}
	if !estimator.IsTransformer(e) {
		return nil, nil, &Error{
			Code: ErrCodeSchemaMismatch,
			Err:  &pipeline.SchemaError{Step: e.TypeName(), Missing: "transform"},
		}
	}
	return in.transform(e.(estimator.Transformer), X)
}

func (in *Instrumentor) transform(t estimator.Transformer, X *frame.Frame) (*frame.Frame, *schema.TransformEvent, error) {
	old := snapshotInput(X)
	out, err := t.Transform(X)
	if err != nil {
		return nil, nil, fmt.Errorf("transform %s: %w", t.TypeName(), err)
	}
	c := &capture{}
	ev := &schema.TransformEvent{
		Transformer:  c.model(t, ""),
		OldDataFrame: old,
		NewDataFrame: snapshotOutput(out),
	}
	if c.failed() {
		return nil, nil, in.captureFailed(c, "transform", t.Tag())
	}
	rec := in.recorder.Record(schema.NewTransformEvent(ev))
	in.logger.Debug().Str("key", rec.Key).Str("type", t.TypeName()).Msg("transform recorded")
	return out, ev, nil
}

func (in *Instrumentor) captureFailed(c *capture, op, objTag string) error {
	in.metrics.CaptureFailed()
	in.logger.Warn().
		Err(c.err).
		Str("op", op).
		Str("step", c.step).
		Str("tag", objTag).
		Msg("event capture failed, nothing recorded")
	return &Error{Code: ErrCodeCaptureFailed, Step: c.step, Err: c.err}
}

func schemaMismatch(err error) error {
	ie := &Error{Code: ErrCodeSchemaMismatch, Err: err}
	var se *pipeline.SchemaError
	if errors.As(err, &se) {
		ie.Step = se.Step
	}
	return ie
}

func qualify(path, name string) string {
	if path == "" {
		return name
	}
	return params.Qualify(path, name)
}
