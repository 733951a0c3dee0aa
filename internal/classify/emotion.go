package classify

import (
	"fmt"
	"strings"
	"time"
)

type emotion struct {
	name  string
	day   int
	night int
}

var (
	happy   = emotion{name: "Happy", day: ScentClear, night: ScentCloudy}
	relaxed = emotion{name: "Relaxed", day: ScentSnow, night: ScentSnow}
	angry   = emotion{name: "Angry", day: ScentCloudy, night: ScentRain}
	sad     = emotion{name: "Sad", day: ScentRain, night: ScentSnow}
	unknown = emotion{name: "Unknown", day: ScentClear, night: ScentClear}
)

// emotionInputs accepts the app's numeric codes, Korean words and English names.
var emotionInputs = map[string]emotion{
	"1": happy, "신남": happy, "happy": happy,
	"2": relaxed, "편안함": relaxed, "relaxed": relaxed,
	"3": angry, "화남": angry, "angry": angry,
	"4": sad, "슬픔": sad, "sad": sad,
}

// IsDaytime reports whether t falls in [09:00, 18:00) of its own location.
func IsDaytime(t time.Time) bool {
	return t.Hour() >= 9 && t.Hour() < 18
}

// ClassifyEmotion maps an emotion input to a scent for the time of day of now.
// Unrecognized input yields the "Unknown" label with the clear scent.
func ClassifyEmotion(input string, now time.Time) Outcome {
	e, ok := emotionInputs[strings.ToLower(strings.TrimSpace(input))]
	if !ok {
		e = unknown
	}

	code, timeLabel, duration := e.night, "Night", 2
	if IsDaytime(now) {
		code, timeLabel, duration = e.day, "Day", 3
	}

	return Outcome{
		ScentCode: code,
		Label:     fmt.Sprintf("%s/%s", e.name, timeLabel),
		Mode:      ModeEmotion,
		Duration:  duration,
	}
}
