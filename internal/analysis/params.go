package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Parameter names understood by the analyses.
const (
	ParamTopN         = "top_n"
	ParamForecastDays = "forecast_days"
	paramAsOf         = "as_of"
)

// Defaults for optional parameters.
const (
	DefaultTopN         = 10
	DefaultForecastDays = 90
)

// Params are the keyword parameters of one analysis call. They take part in
// the cache key exactly as given.
type Params map[string]any

// Int returns the named parameter as a positive integer, or def when it is
// missing, malformed or not positive.
func (p Params) Int(name string, def int) int {
	v, ok := p[name]
	if !ok {
		return def
	}
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		n = int(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return def
		}
		n = int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return def
		}
		n = i
	default:
		return def
	}
	if n <= 0 {
		return def
	}
	return n
}

// clone returns a shallow copy safe to extend.
func (p Params) clone() map[string]any {
	out := make(map[string]any, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
