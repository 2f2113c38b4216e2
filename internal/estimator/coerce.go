package estimator

import (
	"encoding/json"
	"fmt"
	"math"
)

// UnknownParamError is returned by SetParam for a name the estimator does
// not define.
type UnknownParamError struct {
	Type string
	Name string
}

func (e *UnknownParamError) Error() string {
	return fmt.Sprintf("%s has no parameter %q", e.Type, e.Name)
}

func asBool(name string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: want bool, got %T", name, v)
	}
	return b, nil
}

// intLimit is 2^63 (2^31 on 32-bit platforms), the first float64 above
// math.MaxInt.
const intLimit = -float64(math.MinInt)

func asInt(name string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int64ToInt(name, n)
	case uint64:
		if n > math.MaxInt {
			return 0, outOfIntRange(name, n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("parameter %q: %v is not an integer", name, n)
		}
		if n < math.MinInt || n >= intLimit {
			return 0, outOfIntRange(name, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("parameter %q: %w", name, err)
		}
		return int64ToInt(name, i)
	}
	return 0, fmt.Errorf("parameter %q: want integer, got %T", name, v)
}

func int64ToInt(name string, n int64) (int, error) {
	if n < math.MinInt || n > math.MaxInt {
		return 0, outOfIntRange(name, n)
	}
	return int(n), nil
}

func outOfIntRange(name string, v any) error {
	return fmt.Errorf("parameter %q: %v overflows int", name, v)
}

func asFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("parameter %q: %w", name, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("parameter %q: want number, got %T", name, v)
}

func inRange(name string, v float64, r Range) error {
	if v < r.Min || v > r.Max {
		return fmt.Errorf("parameter %q: %v outside [%v, %v]", name, v, r.Min, r.Max)
	}
	return nil
}
