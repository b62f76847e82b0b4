package dialogue

import (
	"encoding/json"
	"strconv"
)

// Params is the open parameter map carried by a trigger. Values are whatever the
// script decoder produced: float64 from JSON, int or float64 from YAML, strings, bools.
type Params map[string]any

// Number returns the parameter as a float64. Strings are not coerced.
func (p Params) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
