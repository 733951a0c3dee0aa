package classify

import (
	"strconv"
	"strings"
)

// DefaultHumidityThreshold is the relative humidity (%) at or above which clear
// weather is treated as cloudy.
const DefaultHumidityThreshold = 50.0

// HighHumidityLabel replaces the weather label when humidity crosses the threshold.
const HighHumidityLabel = "흐림(고습도)"

const weatherDuration = 3

var (
	rainTokens  = []string{"비", "강수"}
	snowTokens  = []string{"눈"}
	cloudTokens = []string{"흐림", "구름"}
)

// ClassifyWeather maps a weather label and humidity reading to a scent.
// humidity is the raw provider value; anything that does not parse as a number
// counts as below the threshold.
func ClassifyWeather(label, humidity string, threshold float64) Outcome {
	if threshold < 0 {
		threshold = DefaultHumidityThreshold
	}

	if h, err := strconv.ParseFloat(strings.TrimSpace(humidity), 64); err == nil && h >= threshold {
		if !containsAny(label, rainTokens) && !containsAny(label, snowTokens) {
			label = HighHumidityLabel
		}
	}

	code := ScentClear
	switch {
	case containsAny(label, rainTokens):
		code = ScentRain
	case containsAny(label, snowTokens):
		code = ScentSnow
	case containsAny(label, cloudTokens):
		code = ScentCloudy
	}

	return Outcome{
		ScentCode: code,
		Label:     label,
		Mode:      ModeWeather,
		Duration:  weatherDuration,
	}
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
