// Package instrument records provenance events for estimator and pipeline
// execution.
//
// An Instrumentor wraps the fit and transform entry points. It runs the
// underlying computation unchanged, captures snapshots of datasets,
// transformers and specs along the way, and hands the finished event to a
// Recorder (normally a *buffer.Buffer).
//
// For a pipeline fit the captured tree mirrors the pipeline: one FitStage per
// step, one TransformStage per step that transforms, nested pipelines
// recorded as nested stages, and a whole-pipeline FitEvent whose spec carries
// the flattened qualified hyperparameters.
//
// Failure policy:
//   - A step lacking a capability its position needs is a schema mismatch,
//     reported before any step runs.
//   - A parameter that cannot be introspected is a capture failure. The
//     computation still completes; the call returns the error and nothing is
//     recorded.
//   - A fitted state holding NaN or an infinity is a capture failure too,
//     handled the same way, since no backend could store the event.
//   - Errors from the estimators themselves are returned unchanged in meaning
//     and nothing is recorded.
package instrument
