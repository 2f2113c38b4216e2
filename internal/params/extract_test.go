package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/estimator"
	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/tag"
)

type fakeEstimator struct {
	tag.Label
	typ    string
	params []estimator.Param
}

func (f *fakeEstimator) TypeName() string                  { return f.typ }
func (f *fakeEstimator) Params() []estimator.Param         { return f.params }
func (f *fakeEstimator) Fit(*frame.Frame, []float64) error { return nil }
func (f *fakeEstimator) State() []float64                  { return []float64{0} }

type fakeComposite struct {
	fakeEstimator
	subs []estimator.Named
}

func (f *fakeComposite) SubEstimators() []estimator.Named { return f.subs }

func names(hps []schema.HyperParameter) []string {
	out := make([]string, len(hps))
	for i, hp := range hps {
		out[i] = hp.Name
	}
	return out
}

func find(t *testing.T, hps []schema.HyperParameter, name string) schema.HyperParameter {
	t.Helper()
	hp, ok := schema.FindHyperParameter(hps, name)
	require.True(t, ok, "missing hyperparameter %q in %v", name, names(hps))
	return hp
}

func TestExtract_Leaf(t *testing.T) {
	hps, err := Extract(estimator.NewPCA())
	require.NoError(t, err)

	assert.Equal(t, []string{"copy", "n_components", "whiten"}, names(hps))
	assert.Equal(t, schema.HyperParameter{
		Name: "copy", Value: "true", Type: "bool",
		MinValue: schema.UnboundedMin, MaxValue: schema.UnboundedMax,
	}, hps[0])
	assert.Equal(t, "nil", hps[1].Value)
	assert.Equal(t, "nil", hps[1].Type)
	assert.True(t, hps[2].Unbounded())
}

func TestExtract_Range(t *testing.T) {
	hps, err := Extract(estimator.NewRidge())
	require.NoError(t, err)

	alpha := find(t, hps, "alpha")
	assert.Equal(t, "1", alpha.Value)
	assert.Equal(t, "float64", alpha.Type)
	assert.Equal(t, 0.0, alpha.MinValue)
	assert.False(t, alpha.Unbounded())
}

func TestExtract_EstimatorValuedParam(t *testing.T) {
	wrapper := &fakeEstimator{typ: "Wrapper", params: []estimator.Param{
		{Name: "base", Value: estimator.NewPCA()},
		{Name: "rounds", Value: 3},
	}}

	hps, err := Extract(wrapper)
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "base__copy", "base__n_components", "base__whiten", "rounds"}, names(hps))
	base := find(t, hps, "base")
	assert.Equal(t, "PCA(copy=true, n_components=nil, whiten=false)", base.Value)
	assert.Equal(t, "PCA", base.Type)
}

func TestExtract_CompositeDualEmission(t *testing.T) {
	pca := estimator.NewPCA()
	lr := estimator.NewLinearRegression()
	comp := &fakeComposite{
		fakeEstimator: fakeEstimator{typ: "Chain", params: []estimator.Param{
			{Name: "steps", Value: []any{
				estimator.Tuple{"pca", pca},
				estimator.Tuple{"lr", lr},
			}},
		}},
		subs: []estimator.Named{{Name: "pca", Estimator: pca}, {Name: "lr", Estimator: lr}},
	}

	hps, err := Extract(comp)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"steps",
		"pca", "pca__copy", "pca__n_components", "pca__whiten",
		"lr", "lr__copy_X", "lr__fit_intercept", "lr__n_jobs", "lr__normalize",
	}, names(hps))

	steps := find(t, hps, "steps")
	assert.Equal(t, "list", steps.Type)
	assert.Equal(t,
		`[("pca", PCA(copy=true, n_components=nil, whiten=false)), `+
			`("lr", LinearRegression(copy_X=true, fit_intercept=true, n_jobs=1, normalize=false))]`,
		steps.Value)

	lrHP := find(t, hps, "lr")
	assert.Equal(t, "LinearRegression", lrHP.Type)
	assert.Equal(t, "LinearRegression(copy_X=true, fit_intercept=true, n_jobs=1, normalize=false)", lrHP.Value)
	assert.Equal(t, "1", find(t, hps, "lr__n_jobs").Value)
}

func TestExtract_UnsupportedType(t *testing.T) {
	bad := &fakeEstimator{typ: "Bad", params: []estimator.Param{
		{Name: "lookup", Value: map[string]int{"a": 1}},
	}}

	_, err := Extract(bad)
	require.Error(t, err)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "lookup", ce.Param)
	assert.Equal(t, "map[string]int", ce.Type)
	assert.True(t, IsConfigError(err))
}

func TestExtract_UnsupportedTypeQualified(t *testing.T) {
	bad := &fakeEstimator{typ: "Bad", params: []estimator.Param{
		{Name: "callback", Value: func() {}},
	}}
	comp := &fakeComposite{
		fakeEstimator: fakeEstimator{typ: "Chain"},
		subs:          []estimator.Named{{Name: "inner", Estimator: bad}},
	}

	_, err := Extract(comp)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "inner__callback", ce.Param)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		typ      string
	}{
		{"nil", nil, "nil", "nil"},
		{"bool", false, "false", "bool"},
		{"int", 42, "42", "int"},
		{"float", 0.25, "0.25", "float64"},
		{"top-level string", "auto", "auto", "string"},
		{"nested string", []string{"a", "b"}, `["a", "b"]`, "list"},
		{"tuple", estimator.Tuple{"x", 1}, `("x", 1)`, "tuple"},
		{"empty list", []any{}, "[]", "list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ValueOf("p", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Render(v))
			assert.Equal(t, tt.typ, v.TypeName())
		})
	}
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "logistic__n_jobs", Qualify("logistic", "n_jobs"))
}
