package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/engine"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/mw"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/parse"
)

// Device id defaults, by who usually omits the id.
const (
	DefaultDeviceID      = "ESP32_Test"
	DefaultAppDeviceID   = "App_User"
	DefaultVoiceDeviceID = "ESP32_VOICE"
)

const (
	actionPoll   = "POLL"
	actionManual = "MANUAL"
	modeEmotion  = "emotion"
	modeVoice    = "voice"
)

// decodeBody reads a loosely-typed JSON object. Anything malformed reads as {}.
func decodeBody(raw []byte) map[string]any {
	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || body == nil {
		return map[string]any{}
	}
	return body
}

// bodyDeviceID prefers "device" (firmware) over "deviceId" (app). A body that names
// neither is a test board; one that sends an empty "device" is the app.
func bodyDeviceID(body map[string]any) string {
	if id := parse.Text(body["device"]); id != "" {
		return id
	}
	if id := parse.Text(body["deviceId"]); id != "" {
		return id
	}
	if _, ok := body["device"]; ok {
		return DefaultAppDeviceID
	}
	return DefaultDeviceID
}

// voiceDeviceID looks in the query string, then the device header.
func voiceDeviceID(c *gin.Context) string {
	for _, key := range []string{"deviceId", "device"} {
		if id := c.Query(key); id != "" {
			return id
		}
	}
	if id := c.GetHeader(mw.DeviceHeader); id != "" {
		return id
	}
	return DefaultVoiceDeviceID
}

// toRequest turns a JSON body into a decision request. ok is false when a manual
// command's scent code cannot be read.
func toRequest(body map[string]any) (engine.Request, bool) {
	deviceID := bodyDeviceID(body)
	action := strings.ToUpper(parse.Text(body["action"]))
	region := parse.Text(body["region"])
	weight, _ := parse.Number(body["w4"])

	switch action {
	case actionPoll:
		return engine.PollRequest{DeviceID: deviceID}, true
	case actionManual:
		code, err := parse.SprayNum(body["sprayNum"])
		if err != nil {
			return nil, false
		}
		return engine.ManualCommand{DeviceID: deviceID, SprayNum: code, Region: region}, true
	}

	switch parse.Text(body["mode"]) {
	case modeEmotion:
		emotion := parse.Text(body["user_emotion"])
		if emotion == "" {
			emotion = "1"
		}
		return engine.EmotionRequest{DeviceID: deviceID, Emotion: emotion, WeightGrams: weight}, true
	case modeVoice:
		return engine.VoiceRequest{DeviceID: deviceID, Transcript: parse.Text(body["text"]), WeightGrams: weight}, true
	default:
		return engine.WeatherRequest{DeviceID: deviceID, Region: region, WeightGrams: weight}, true
	}
}

func isAudio(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.ContentType()), "audio/wav")
}

// isBase64 reports whether the gateway delivered the audio base64-encoded.
func isBase64(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("Content-Transfer-Encoding"), "base64") {
		return true
	}
	v := strings.ToLower(c.Query("isBase64Encoded"))
	return v == "true" || v == "1"
}

func decodeAudio(raw []byte, b64 bool) ([]byte, error) {
	if !b64 {
		return raw, nil
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
}
