package engine

import (
	"context"
	"errors"
	"log"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/classify"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/errs"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/parse"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/voice"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/weather"
)

// Audit-log region labels for modes without a region.
const (
	RegionEmotion = "Emotion"
	RegionVoice   = "Voice"
)

// candidate is a classified dispense awaiting admission.
type candidate struct {
	outcome     classify.Outcome
	region      string
	weight      float64
	temperature string
	humidity    string
	voiceText   string
	clipKey     string
}

func (e *Engine) weatherCandidate(ctx context.Context, r WeatherRequest) (candidate, error) {
	c := candidate{region: r.Region, weight: r.WeightGrams}

	var obs weather.Observation
	if label, ok := parse.ForcedWeather(r.Region); ok && label != "" {
		log.Printf("[TEST MODE] Forced weather = %s", label)
		obs = weather.Observation{Temperature: "0", Label: label, Humidity: "0"}
	} else {
		if e.weather == nil {
			return candidate{}, errs.NewConfiguration("API Key Error")
		}
		if c.region == "" {
			c.region = region.DefaultRegion
		}
		_, coords := e.catalog.Lookup(c.region)
		baseDate, baseTime := weather.BaseDateTime(e.now())

		var err error
		obs, err = e.weather.Fetch(ctx, coords, baseDate, baseTime)
		if err != nil {
			e.metrics.WeatherFallbackTotal.Add(1)
			log.Printf("Weather fetch failed for %s, using fallback: %v", c.region, errs.NewUpstream("nowcast", err))
			obs = weather.Fallback(err)
		}
	}

	c.temperature = obs.Temperature
	c.humidity = obs.Humidity
	c.outcome = classify.ClassifyWeather(obs.Label, obs.Humidity, e.policy.HumidityThreshold)
	return c, nil
}

func (e *Engine) emotionCandidate(r EmotionRequest) candidate {
	return candidate{
		outcome: classify.ClassifyEmotion(r.Emotion, e.now()),
		region:  RegionEmotion,
		weight:  r.WeightGrams,
	}
}

// voiceCandidate returns a non-nil Result when transcription failed and the
// request ends without a decision.
func (e *Engine) voiceCandidate(ctx context.Context, r VoiceRequest) (candidate, *Result, error) {
	c := candidate{region: RegionVoice, weight: r.WeightGrams, voiceText: r.Transcript}

	if len(r.Audio) > 0 {
		if e.voice == nil {
			return candidate{}, nil, errs.NewConfiguration("VOICE_BUCKET missing")
		}
		t, err := e.voice.Transcribe(ctx, r.DeviceID, r.Audio)
		if err != nil {
			if errs.Is(err, errs.KindConfiguration) {
				return candidate{}, nil, err
			}
			e.metrics.VoiceFailuresTotal.Add(1)
			log.Printf("Transcribe error for device %s: %v", r.DeviceID, err)
			failed := Result{
				Kind:       KindVoiceFailed,
				ResultText: ResultSTTFail,
				Message:    MessageSTTFail,
				Mode:       classify.ModeVoice,
			}
			if errors.Is(err, voice.ErrClipStore) {
				failed.ResultText = ResultUploadFail
				failed.Message = MessageUploadFail
			}
			return candidate{}, &failed, nil
		}
		c.voiceText = t.Text
		c.clipKey = t.ClipKey
	}

	c.outcome = classify.ClassifyVoice(c.voiceText)
	return c, nil, nil
}
