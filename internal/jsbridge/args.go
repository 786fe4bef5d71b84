package jsbridge

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dop251/goja"
)

// Args are the arguments of a JS call, exported to plain Go values: nil,
// bool, int64, float64, string, []any and map[string]any.
type Args []any

func exportArgs(values []goja.Value) Args {
	args := make(Args, len(values))
	for i, v := range values {
		args[i] = exportValue(v)
	}
	return args
}

// Get returns argument i, or nil when absent.
func (a Args) Get(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// IsNull reports whether argument i is absent, null or undefined.
func (a Args) IsNull(i int) bool { return a.Get(i) == nil }

// String returns argument i as a string.
func (a Args) String(i int) (string, error) {
	s, ok := a.Get(i).(string)
	if !ok {
		return "", fmt.Errorf("argument %d: expected string, got %T", i, a.Get(i))
	}
	return s, nil
}

// OptionalString returns argument i, or "" and false when it is null.
func (a Args) OptionalString(i int) (string, bool, error) {
	if a.IsNull(i) {
		return "", false, nil
	}
	s, err := a.String(i)
	return s, err == nil, err
}

// Bool returns argument i as a bool.
func (a Args) Bool(i int) (bool, error) {
	b, ok := a.Get(i).(bool)
	if !ok {
		return false, fmt.Errorf("argument %d: expected boolean, got %T", i, a.Get(i))
	}
	return b, nil
}

// Float returns argument i as a float64.
func (a Args) Float(i int) (float64, error) {
	switch v := a.Get(i).(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("argument %d: expected number, got %T", i, v)
	}
}

// Int returns argument i as an int64. Fractional numbers are rejected.
func (a Args) Int(i int) (int64, error) {
	switch v := a.Get(i).(type) {
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("argument %d: expected integer, got %v", i, v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("argument %d: expected number, got %T", i, v)
	}
}

// Decode converts argument i into dst through its JSON form.
func (a Args) Decode(i int, dst any) error {
	data, err := json.Marshal(a.Get(i))
	if err != nil {
		return fmt.Errorf("argument %d: %w", i, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("argument %d: %w", i, err)
	}
	return nil
}
