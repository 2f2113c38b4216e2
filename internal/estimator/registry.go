package estimator

import (
	"fmt"
	"slices"
)

var factories = map[string]func() Estimator{
	"PCA":              func() Estimator { return NewPCA() },
	"LinearRegression": func() Estimator { return NewLinearRegression() },
	"Ridge":            func() Estimator { return NewRidge() },
	"StandardScaler":   func() Estimator { return NewStandardScaler() },
}

// Types lists the registered estimator type names in sorted order.
func Types() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// New builds a registered estimator and applies params to it.
// Params are applied in name order so errors are reported deterministically.
func New(typeName string, params map[string]any) (Estimator, error) {
	factory, ok := factories[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown estimator type %q", typeName)
	}
	e := factory()
	if len(params) == 0 {
		return e, nil
	}
	cfg, ok := e.(Configurable)
	if !ok {
		return nil, fmt.Errorf("%s does not accept parameters", typeName)
	}
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		if err := cfg.SetParam(n, params[n]); err != nil {
			return nil, fmt.Errorf("%s: %w", typeName, err)
		}
	}
	return e, nil
}
