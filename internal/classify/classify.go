// Package classify turns weather readings, emotion labels and voice transcripts
// into a candidate scent code and dispense duration. Every function is pure.
package classify

// Scent codes identify the physical channel to actuate.
const (
	ScentNone   = 0
	ScentClear  = 1
	ScentCloudy = 2
	ScentRain   = 3
	ScentSnow   = 4
)

// Mode names reported to the device and written to the audit log.
const (
	ModeWeather = "Weather_Mode"
	ModeEmotion = "Emotion_Mode"
	ModeVoice   = "Voice_Mode"
)

// Outcome is a classifier's candidate dispense.
type Outcome struct {
	ScentCode int
	Label     string // normalized weather label, emotion/time label or voice result text
	Mode      string
	Duration  int // seconds
}
