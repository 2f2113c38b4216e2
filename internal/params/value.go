package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/provtrack/internal/estimator"
)

// Value is a sealed interface over the parameter value kinds that can be
// recorded. Only the types in this file implement it.
type Value interface {
	// TypeName is the recorded type of the original value.
	TypeName() string
	// repr renders the value. Strings are quoted only when nested.
	repr(nested bool) string
}

// None is an unset parameter.
type None struct{}

func (None) TypeName() string { return "nil" }
func (None) repr(bool) string { return "nil" }

// Bool is a boolean parameter.
type Bool bool

func (Bool) TypeName() string   { return "bool" }
func (b Bool) repr(bool) string { return strconv.FormatBool(bool(b)) }

// Int is an integer parameter.
type Int int64

func (Int) TypeName() string   { return "int" }
func (i Int) repr(bool) string { return strconv.FormatInt(int64(i), 10) }

// Float is a floating point parameter.
type Float float64

func (Float) TypeName() string   { return "float64" }
func (f Float) repr(bool) string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// String is a string parameter.
type String string

func (String) TypeName() string { return "string" }
func (s String) repr(nested bool) string {
	if nested {
		return strconv.Quote(string(s))
	}
	return string(s)
}

// List is an ordered sequence of values.
type List []Value

func (List) TypeName() string { return "list" }
func (l List) repr(bool) string {
	return "[" + joinRepr(l) + "]"
}

// Tuple is a fixed-arity group of values.
type Tuple []Value

func (Tuple) TypeName() string { return "tuple" }
func (t Tuple) repr(bool) string {
	return "(" + joinRepr(t) + ")"
}

// Nested is an estimator used as a parameter value.
type Nested struct {
	E estimator.Estimator
	// rendered is the estimator's representation, computed once at conversion.
	rendered string
}

func (n Nested) TypeName() string { return n.E.TypeName() }
func (n Nested) repr(bool) string { return n.rendered }

func joinRepr(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.repr(true)
	}
	return strings.Join(parts, ", ")
}

// Render renders v the way it is recorded in a HyperParameter.
func Render(v Value) string {
	return v.repr(false)
}

// ValueOf converts a parameter value. name is only used in errors.
func ValueOf(name string, v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return None{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []string:
		l := make(List, len(x))
		for i, s := range x {
			l[i] = String(s)
		}
		return l, nil
	case []int:
		l := make(List, len(x))
		for i, n := range x {
			l[i] = Int(n)
		}
		return l, nil
	case []float64:
		l := make(List, len(x))
		for i, f := range x {
			l[i] = Float(f)
		}
		return l, nil
	case []any:
		return convertAll[List](name, x)
	case estimator.Tuple:
		return convertAll[Tuple](name, x)
	case estimator.Estimator:
		r, err := Repr(x)
		if err != nil {
			return nil, err
		}
		return Nested{E: x, rendered: r}, nil
	}
	return nil, &ConfigError{Param: name, Type: fmt.Sprintf("%T", v)}
}

func convertAll[S interface {
	~[]Value
	Value
}](name string, xs []any) (Value, error) {
	out := make(S, len(xs))
	for i, x := range xs {
		v, err := ValueOf(name, x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Repr renders an estimator as Type(name=value, ...) over its Params.
func Repr(e estimator.Estimator) (string, error) {
	var b strings.Builder
	b.WriteString(e.TypeName())
	b.WriteByte('(')
	for i, p := range e.Params() {
		v, err := ValueOf(p.Name, p.Value)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(v.repr(true))
	}
	b.WriteByte(')')
	return b.String(), nil
}
