package estimator

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/tag"
)

// linearModel is the least-squares core shared by LinearRegression and Ridge.
type linearModel struct {
	CopyX        bool
	FitIntercept bool
	Normalize    bool

	coef      []float64
	intercept float64
	fitted    bool
}

func (m *linearModel) fit(X *frame.Frame, y []float64, alpha float64) error {
	if y == nil {
		return fmt.Errorf("linear model: target required")
	}
	if len(y) != X.NumRows() {
		return fmt.Errorf("linear model: %d targets for %d rows", len(y), X.NumRows())
	}
	if X.NumRows() == 0 {
		return fmt.Errorf("linear model: empty input")
	}
	d := X.NumCols()
	rows := X.Matrix()

	xMeans := make([]float64, d)
	yMean := 0.0
	if m.FitIntercept {
		xMeans = columnMeans(rows, d)
		for _, v := range y {
			yMean += v
		}
		yMean /= float64(len(y))
	}
	Z := center(rows, xMeans)

	scale := make([]float64, d)
	for j := range scale {
		scale[j] = 1
	}
	if m.Normalize && m.FitIntercept {
		for j := 0; j < d; j++ {
			ss := 0.0
			for _, row := range Z {
				ss += row[j] * row[j]
			}
			if ss > 0 {
				scale[j] = math.Sqrt(ss)
			}
		}
		for _, row := range Z {
			for j := range row {
				row[j] /= scale[j]
			}
		}
	}

	A := gram(Z, d)
	for j := 0; j < d; j++ {
		A[j][j] += alpha
	}
	b := make([]float64, d)
	for i, row := range Z {
		r := y[i] - yMean
		for j := 0; j < d; j++ {
			b[j] += row[j] * r
		}
	}

	w, err := solve(A, b)
	if err != nil {
		return fmt.Errorf("linear model: %w", err)
	}
	for j := range w {
		w[j] /= scale[j]
	}

	m.coef = w
	m.intercept = 0
	if m.FitIntercept {
		m.intercept = yMean - dot(xMeans, w)
	}
	m.fitted = true
	return nil
}

func (m *linearModel) predict(X *frame.Frame) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if X.NumCols() != len(m.coef) {
		return nil, fmt.Errorf("linear model: fitted on %d features, got %d", len(m.coef), X.NumCols())
	}
	rows := X.Matrix()
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = dot(row, m.coef) + m.intercept
	}
	return out, nil
}

// state is the fitted coefficient vector, or [0] before fit.
func (m *linearModel) state() []float64 {
	if !m.fitted {
		return []float64{0}
	}
	return slices.Clone(m.coef)
}

func (m *linearModel) setCommon(typ, name string, value any) error {
	var err error
	switch name {
	case "copy_X":
		m.CopyX, err = asBool(name, value)
	case "fit_intercept":
		m.FitIntercept, err = asBool(name, value)
	case "normalize":
		m.Normalize, err = asBool(name, value)
	default:
		return &UnknownParamError{Type: typ, Name: name}
	}
	return err
}

// LinearRegression is ordinary least squares.
type LinearRegression struct {
	tag.Label
	linearModel

	NJobs int
}

// NewLinearRegression returns a regression that fits an intercept.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{
		linearModel: linearModel{CopyX: true, FitIntercept: true},
		NJobs:       1,
	}
}

func (r *LinearRegression) TypeName() string { return "LinearRegression" }

func (r *LinearRegression) Params() []Param {
	return []Param{
		{Name: "copy_X", Value: r.CopyX},
		{Name: "fit_intercept", Value: r.FitIntercept},
		{Name: "n_jobs", Value: r.NJobs},
		{Name: "normalize", Value: r.Normalize},
	}
}

func (r *LinearRegression) SetParam(name string, value any) error {
	if name == "n_jobs" {
		n, err := asInt(name, value)
		if err != nil {
			return err
		}
		r.NJobs = n
		return nil
	}
	return r.setCommon(r.TypeName(), name, value)
}

func (r *LinearRegression) Fit(X *frame.Frame, y []float64) error { return r.fit(X, y, 0) }

func (r *LinearRegression) Predict(X *frame.Frame) ([]float64, error) { return r.predict(X) }

// State returns the fitted coefficients, excluding the intercept.
func (r *LinearRegression) State() []float64 { return r.state() }

// Intercept returns the fitted intercept.
func (r *LinearRegression) Intercept() float64 { return r.intercept }

// RidgeAlphaRange bounds the Ridge regularization strength.
var RidgeAlphaRange = Range{Min: 0, Max: math.MaxFloat64}

// Ridge is least squares with an L2 penalty on the coefficients.
type Ridge struct {
	tag.Label
	linearModel

	Alpha float64
}

// NewRidge returns a Ridge with alpha 1.
func NewRidge() *Ridge {
	return &Ridge{
		linearModel: linearModel{CopyX: true, FitIntercept: true},
		Alpha:       1,
	}
}

func (r *Ridge) TypeName() string { return "Ridge" }

func (r *Ridge) Params() []Param {
	alphaRange := RidgeAlphaRange
	return []Param{
		{Name: "alpha", Value: r.Alpha, Range: &alphaRange},
		{Name: "copy_X", Value: r.CopyX},
		{Name: "fit_intercept", Value: r.FitIntercept},
		{Name: "normalize", Value: r.Normalize},
	}
}

func (r *Ridge) SetParam(name string, value any) error {
	if name == "alpha" {
		a, err := asFloat(name, value)
		if err != nil {
			return err
		}
		if err := inRange(name, a, RidgeAlphaRange); err != nil {
			return err
		}
		r.Alpha = a
		return nil
	}
	return r.setCommon(r.TypeName(), name, value)
}

func (r *Ridge) Fit(X *frame.Frame, y []float64) error { return r.fit(X, y, r.Alpha) }

func (r *Ridge) Predict(X *frame.Frame) ([]float64, error) { return r.predict(X) }

// State returns the fitted coefficients, excluding the intercept.
func (r *Ridge) State() []float64 { return r.state() }
