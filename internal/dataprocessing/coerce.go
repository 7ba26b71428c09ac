package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// toFloat reads numeric cells. Strings may carry thousands separators and
// surrounding whitespace.
func toFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case bool:
		return 0, false
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// countValue is the outcome of coercing one registrations cell.
type countValue struct {
	n          int64
	nonNumeric bool
	clamped    bool
}

// coerceCount truncates toward zero, maps unreadable values to 0 and clamps
// negatives to 0.
func coerceCount(v any) countValue {
	f, ok := toFloat(v)
	if !ok {
		return countValue{nonNumeric: true}
	}
	f = math.Trunc(f)
	if f < 0 {
		return countValue{clamped: true}
	}
	if f > math.MaxInt64 {
		return countValue{n: math.MaxInt64}
	}
	return countValue{n: int64(f)}
}

// cellText renders a cell as trimmed text. Integral floats drop the ".0".
func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return strconv.FormatFloat(val, 'f', 0, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
