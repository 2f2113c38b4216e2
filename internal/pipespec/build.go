package pipespec

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/roach88/provtrack/internal/estimator"
	"github.com/roach88/provtrack/internal/frame"
	"github.com/roach88/provtrack/internal/pipeline"
)

// Build instantiates the pipeline described by d.
func (d *Definition) Build() (*pipeline.Pipeline, error) {
	return buildSteps(d.Steps)
}

func buildSteps(steps []Step) (*pipeline.Pipeline, error) {
	out := make([]pipeline.Step, 0, len(steps))
	for _, s := range steps {
		var (
			e   estimator.Estimator
			err error
		)
		if len(s.Steps) > 0 {
			e, err = buildSteps(s.Steps)
		} else {
			e, err = estimator.New(s.Type, s.Params)
		}
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Name, err)
		}
		if s.Tag != "" {
			e.SetTag(s.Tag)
		}
		out = append(out, pipeline.Step{Name: s.Name, Estimator: e})
	}
	return pipeline.New(out...)
}

// LoadData materializes the training set. Relative CSV paths resolve
// against baseDir, normally the directory of the definition file.
func (d *Definition) LoadData(baseDir string) (*frame.Frame, []float64, error) {
	if d.Data == nil {
		return nil, nil, &DefinitionError{Field: "data", Message: "definition has no data section"}
	}

	var (
		X   *frame.Frame
		y   []float64
		err error
	)
	if d.Data.Synthetic != nil {
		X, y, err = d.Data.Synthetic.generate()
	} else {
		X, y, err = loadCSV(d.Data, baseDir)
	}
	if err != nil {
		return nil, nil, err
	}
	if d.Data.Tag != "" {
		X.SetTag(d.Data.Tag)
	}
	return X, y, nil
}

func loadCSV(data *Data, baseDir string) (*frame.Frame, []float64, error) {
	path := data.CSV
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	f, err := frame.ReadCSVFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f.Split(data.Target)
}

func (s *Synthetic) generate() (*frame.Frame, []float64, error) {
	X := frame.RandomInts(s.Rows, s.Columns, s.High, s.Seed)

	y := make([]float64, s.Rows)
	for i := range y {
		y[i] = s.Bias
	}
	names := slices.Sorted(maps.Keys(s.Weights))
	for _, name := range names {
		w := s.Weights[name]
		col, ok := X.Column(name)
		if !ok {
			return nil, nil, &DefinitionError{
				Field:   "data.synthetic.weights." + name,
				Message: "weight for unknown column",
			}
		}
		for i, v := range col {
			y[i] += w * v
		}
	}
	return X, y, nil
}
