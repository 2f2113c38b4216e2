// Package pipespec loads pipeline definitions from YAML, JSON or CUE.
//
// Every definition is unified with an embedded CUE schema before it is
// decoded, so type errors, unknown fields and malformed step names are
// reported with the offending path. Build turns a definition into a
// runnable pipeline of registered estimators.
package pipespec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Definition describes a pipeline and the data to fit it on.
type Definition struct {
	Name  string `json:"name"`
	Data  *Data  `json:"data,omitempty"`
	Steps []Step `json:"steps"`
}

// Data selects the training set. Exactly one of CSV or Synthetic is set.
type Data struct {
	Tag       string     `json:"tag,omitempty"`
	Target    string     `json:"target,omitempty"`
	CSV       string     `json:"csv,omitempty"`
	Synthetic *Synthetic `json:"synthetic,omitempty"`
}

// Synthetic generates integer features and a linear target
// y = Bias + sum(Weights[c] * c).
type Synthetic struct {
	Rows    int                `json:"rows"`
	Columns []string           `json:"columns"`
	High    int                `json:"high"`
	Seed    uint64             `json:"seed"`
	Weights map[string]float64 `json:"weights,omitempty"`
	Bias    float64            `json:"bias"`
}

// Step is one named pipeline step: a registered estimator when Type is
// set, a nested pipeline when Steps is.
type Step struct {
	Name   string         `json:"name"`
	Type   string         `json:"type,omitempty"`
	Tag    string         `json:"tag,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Steps  []Step         `json:"steps,omitempty"`
}

// Load reads a definition file. The format follows the extension: .yaml,
// .yml, .json or .cue.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	return Parse(data, path)
}

// Parse validates and decodes a definition. filename selects the format
// and appears in error positions.
func Parse(data []byte, filename string) (*Definition, error) {
	ctx := cuecontext.New()

	var v cue.Value
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		v = ctx.Encode(raw)
	case ".cue", ".json":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	default:
		return nil, fmt.Errorf("unsupported definition format %q", ext)
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Definition")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	js, err := unified.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var def Definition
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// validate checks the rules the schema cannot express.
func (d *Definition) validate() error {
	if err := validateSteps("steps", d.Steps); err != nil {
		return err
	}
	if d.Data == nil {
		return nil
	}
	switch {
	case d.Data.CSV != "" && d.Data.Synthetic != nil:
		return &DefinitionError{Field: "data", Message: "csv and synthetic are mutually exclusive"}
	case d.Data.CSV == "" && d.Data.Synthetic == nil:
		return &DefinitionError{Field: "data", Message: "one of csv or synthetic is required"}
	case d.Data.CSV != "" && d.Data.Target == "":
		return &DefinitionError{Field: "data.target", Message: "target column is required for csv data"}
	case d.Data.Synthetic != nil && len(d.Data.Synthetic.Columns) == 0:
		return &DefinitionError{Field: "data.synthetic.columns", Message: "at least one column is required"}
	}
	return nil
}

func validateSteps(field string, steps []Step) error {
	if len(steps) == 0 {
		return &DefinitionError{Field: field, Message: "at least one step is required"}
	}
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		path := fmt.Sprintf("%s.%d", field, i)
		if seen[s.Name] {
			return &DefinitionError{Field: path + ".name", Message: fmt.Sprintf("duplicate step name %q", s.Name)}
		}
		seen[s.Name] = true

		hasType, hasSteps := s.Type != "", len(s.Steps) > 0
		switch {
		case hasType && hasSteps:
			return &DefinitionError{Field: path, Message: "type and steps are mutually exclusive"}
		case !hasType && !hasSteps:
			return &DefinitionError{Field: path, Message: "one of type or steps is required"}
		case hasSteps:
			if len(s.Params) > 0 {
				return &DefinitionError{Field: path + ".params", Message: "nested pipelines take no params"}
			}
			if err := validateSteps(path+".steps", s.Steps); err != nil {
				return err
			}
		}
	}
	return nil
}
