package jsbridge

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dop251/goja"
)

// ToValue converts v into a plain JS value. Primitives are passed through;
// everything else goes through its JSON encoding so that JS receives
// ordinary objects and arrays rather than wrapped Go values.
func ToValue(vm *goja.Runtime, v any) (goja.Value, error) {
	switch t := v.(type) {
	case nil:
		return goja.Null(), nil
	case goja.Value:
		return t, nil
	case string, bool, int, int32, int64, uint32:
		return vm.ToValue(t), nil
	case float64:
		return vm.ToValue(t), nil
	}
	data, err := json.Marshal(SanitizeNonFinite(v))
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return parseJSON(vm, data)
}

func parseJSON(vm *goja.Runtime, data []byte) (goja.Value, error) {
	parse, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
	if !ok {
		return nil, fmt.Errorf("JSON.parse unavailable")
	}
	return parse(goja.Undefined(), vm.ToValue(string(data)))
}

// SanitizeNonFinite replaces NaN and infinite floats, which JSON cannot
// carry, with the strings "NaN", "Infinity" and "-Infinity". It walks
// map[string]any and []any values; other types are returned unchanged.
func SanitizeNonFinite(v any) any {
	switch t := v.(type) {
	case float64:
		return sanitizeFloat(t)
	case float32:
		return sanitizeFloat(float64(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = SanitizeNonFinite(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = SanitizeNonFinite(e)
		}
		return out
	default:
		return v
	}
}

func sanitizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}
