package parse

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TestWeatherMarker prefixes a region value that forces a literal weather label,
// e.g. "테스트 눈" classifies as snow without calling the weather provider.
const TestWeatherMarker = "테스트"

// ForcedWeather extracts the forced weather label from a region value.
func ForcedWeather(region string) (string, bool) {
	if !strings.HasPrefix(region, TestWeatherMarker) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(region, TestWeatherMarker)), true
}

// Number reads a loosely-typed JSON value (number, numeric string, null) as a float.
// Devices send load-cell readings either way.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// SprayNum reads the manual command's scent code. A missing value defaults to 1.
func SprayNum(v any) (int, error) {
	if v == nil {
		return 1, nil
	}
	f, ok := Number(v)
	if !ok {
		return 0, fmt.Errorf("unable to parse sprayNum: %v", v)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("sprayNum must be an integer: %v", v)
	}
	code := int(f)
	if code < 0 || code > 4 {
		return 0, fmt.Errorf("sprayNum out of range: %d", code)
	}
	return code, nil
}

// Text reads a loosely-typed JSON value as a string. Numbers keep their shortest form.
func Text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}
