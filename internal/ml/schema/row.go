package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

// Row is a single tabular observation keyed by field name.
type Row map[string]any

// Number reads a numeric value. ok is false when the key is absent or holds nil.
// Strings and booleans are rejected: numeric fields are never coerced.
func (r Row) Number(name string) (value float64, ok bool, err error) {
	raw, present := r[name]
	if !present || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int32:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		value, err = v.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s: %v", ErrInvalidField, name, err)
		}
	case *float64:
		if v == nil {
			return 0, false, nil
		}
		value = *v
	case *int:
		if v == nil {
			return 0, false, nil
		}
		value = float64(*v)
	default:
		return 0, false, fmt.Errorf("%w: %s: expected a number, got %T", ErrInvalidField, name, raw)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, fmt.Errorf("%w: %s: value is not finite", ErrInvalidField, name)
	}
	return value, true, nil
}

// Text reads a categorical value.
func (r Row) Text(name string) (string, error) {
	raw, present := r[name]
	if !present || raw == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case *string:
		if v == nil {
			return "", fmt.Errorf("%w: %s", ErrMissingField, name)
		}
		return *v, nil
	default:
		return "", fmt.Errorf("%w: %s: expected a string, got %T", ErrInvalidField, name, raw)
	}
}
