package params

import (
	"github.com/roach88/provtrack/internal/estimator"
	"github.com/roach88/provtrack/internal/schema"
)

// Separator joins a parent name and a child parameter name.
const Separator = "__"

// Qualify returns the qualified name of child under parent.
func Qualify(parent, child string) string {
	return parent + Separator + child
}

// Extract lists e's hyperparameters in order: its own Params, each followed
// by the qualified children of an estimator-valued param, then for a
// Composite each sub-estimator followed by its qualified children.
func Extract(e estimator.Estimator) ([]schema.HyperParameter, error) {
	return extract(e, "", nil)
}

func extract(e estimator.Estimator, prefix string, out []schema.HyperParameter) ([]schema.HyperParameter, error) {
	for _, p := range e.Params() {
		name := prefix + p.Name
		v, err := ValueOf(name, p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, hyperParameter(name, v, p.Range))

		if n, ok := v.(Nested); ok {
			if out, err = extract(n.E, name+Separator, out); err != nil {
				return nil, err
			}
		}
	}

	c, ok := e.(estimator.Composite)
	if !ok {
		return out, nil
	}
	for _, sub := range c.SubEstimators() {
		name := prefix + sub.Name
		v, err := ValueOf(name, sub.Estimator)
		if err != nil {
			return nil, err
		}
		out = append(out, hyperParameter(name, v, nil))
		if out, err = extract(sub.Estimator, name+Separator, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func hyperParameter(name string, v Value, r *estimator.Range) schema.HyperParameter {
	hp := schema.HyperParameter{
		Name:     name,
		Value:    Render(v),
		Type:     v.TypeName(),
		MinValue: schema.UnboundedMin,
		MaxValue: schema.UnboundedMax,
	}
	if r != nil {
		hp.MinValue = r.Min
		hp.MaxValue = r.Max
	}
	return hp
}
