package engine

// Request is one validated decision input. The concrete types are the only implementations.
type Request interface {
	device() string
}

// WeatherRequest dispenses for the current weather in Region. A Region starting
// with the test marker forces a literal weather label instead of fetching.
type WeatherRequest struct {
	DeviceID    string
	Region      string
	WeightGrams float64
}

// EmotionRequest dispenses for a mood code or word.
type EmotionRequest struct {
	DeviceID    string
	Emotion     string
	WeightGrams float64
}

// VoiceRequest dispenses for a spoken command. Audio is transcribed when present;
// otherwise Transcript is classified as typed text.
type VoiceRequest struct {
	DeviceID    string
	Audio       []byte
	Transcript  string
	WeightGrams float64
}

// ManualCommand queues a scent code for the device's next poll.
type ManualCommand struct {
	DeviceID string
	SprayNum int
	Region   string
}

// PollRequest drains the device's mailbox.
type PollRequest struct {
	DeviceID string
}

// DeviceOf returns the device id a request targets.
func DeviceOf(r Request) string { return r.device() }

func (r WeatherRequest) device() string { return r.DeviceID }
func (r EmotionRequest) device() string { return r.DeviceID }
func (r VoiceRequest) device() string   { return r.DeviceID }
func (r ManualCommand) device() string  { return r.DeviceID }
func (r PollRequest) device() string    { return r.DeviceID }
