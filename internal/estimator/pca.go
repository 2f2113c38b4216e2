package estimator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/tag"
)

const pcaMaxIter = 200

// PCA projects data onto its top principal components, found by power
// iteration with deflation on the covariance matrix.
type PCA struct {
	tag.Label

	// NComponents is the number of components kept; 0 keeps all of them.
	NComponents int
	Copy        bool
	Whiten      bool

	means      []float64
	components [][]float64
	variances  []float64
}

// NewPCA returns a PCA keeping every component.
func NewPCA() *PCA {
	return &PCA{Copy: true}
}

func (p *PCA) TypeName() string { return "PCA" }

func (p *PCA) Params() []Param {
	var n any
	if p.NComponents > 0 {
		n = p.NComponents
	}
	return []Param{
		{Name: "copy", Value: p.Copy},
		{Name: "n_components", Value: n},
		{Name: "whiten", Value: p.Whiten},
	}
}

func (p *PCA) SetParam(name string, value any) error {
	var err error
	switch name {
	case "copy":
		p.Copy, err = asBool(name, value)
	case "n_components":
		if value == nil {
			p.NComponents = 0
			return nil
		}
		p.NComponents, err = asInt(name, value)
		if err == nil && p.NComponents < 0 {
			err = fmt.Errorf("parameter %q: must not be negative", name)
		}
	case "whiten":
		p.Whiten, err = asBool(name, value)
	default:
		return &UnknownParamError{Type: p.TypeName(), Name: name}
	}
	return err
}

// State is a constant placeholder; PCA exposes no fixed-size summary.
func (p *PCA) State() []float64 { return []float64{0} }

func (p *PCA) Fit(X *frame.Frame, _ []float64) error {
	d := X.NumCols()
	if X.NumRows() == 0 || d == 0 {
		return fmt.Errorf("pca: empty input")
	}
	k := p.NComponents
	if k == 0 {
		k = d
	}
	if k > d {
		return fmt.Errorf("pca: n_components=%d exceeds %d features", k, d)
	}

	rows := X.Matrix()
	means := columnMeans(rows, d)
	cov := gram(center(rows, means), d)
	scale := float64(max(X.NumRows()-1, 1))
	for a := range cov {
		for b := range cov[a] {
			cov[a][b] /= scale
		}
	}

	rng := rand.New(rand.NewPCG(0, 0))
	components := make([][]float64, 0, k)
	variances := make([]float64, 0, k)
	for c := 0; c < k; c++ {
		v := make([]float64, d)
		for j := range v {
			v[j] = rng.Float64() + 0.1
		}
		v = normalize(v)
		for it := 0; it < pcaMaxIter; it++ {
			next := normalize(matVec(cov, v))
			if converged(v, next) {
				v = next
				break
			}
			v = next
		}
		lambda := dot(v, matVec(cov, v))
		components = append(components, v)
		variances = append(variances, lambda)

		// Deflate so the next iteration finds the next component.
		for a := 0; a < d; a++ {
			for b := 0; b < d; b++ {
				cov[a][b] -= lambda * v[a] * v[b]
			}
		}
	}

	p.means = means
	p.components = components
	p.variances = variances
	return nil
}

func converged(a, b []float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-10 {
			return false
		}
	}
	return true
}

// Transform projects X onto the fitted components. The result is an
// unlabeled frame: component columns have no inherited identity.
func (p *PCA) Transform(X *frame.Frame) (*frame.Frame, error) {
	if p.components == nil {
		return nil, ErrNotFitted
	}
	if X.NumCols() != len(p.means) {
		return nil, fmt.Errorf("pca: fitted on %d features, got %d", len(p.means), X.NumCols())
	}
	rows := center(X.Matrix(), p.means)
	out := make([][]float64, len(rows))
	for i, row := range rows {
		proj := make([]float64, len(p.components))
		for c, comp := range p.components {
			proj[c] = dot(row, comp)
			if p.Whiten && p.variances[c] > 0 {
				proj[c] /= math.Sqrt(p.variances[c])
			}
		}
		out[i] = proj
	}
	return frame.FromMatrix(out)
}

// Components returns the fitted unit component vectors.
func (p *PCA) Components() [][]float64 { return p.components }
