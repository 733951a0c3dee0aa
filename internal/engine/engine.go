// Package engine decides whether a candidate dispense is admitted, applying the
// per-device cooldown and reservoir accounting, and relays manual commands
// through the mailbox.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jaehong-maker/Smart-Diffuser-Project/config"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/metrics"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/store"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/voice"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/weather"
)

// Notifier is told when a device's reservoir drops below the alert threshold.
type Notifier interface {
	NotifyLowCapacity(deviceID string, remaining float64)
}

// Policy holds the dispense constants.
type Policy struct {
	CooldownMinutes      float64
	ConsumptionPerSec    float64
	MaxCapacity          float64
	HumidityThreshold    float64
	BlockWhenEmpty       bool
	RelayToMailbox       bool
	LowCapacityThreshold float64
}

// PolicyFromConfig collects the policy from the loaded configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		CooldownMinutes:      cfg.Decision.CooldownMinutes,
		ConsumptionPerSec:    cfg.Decision.ConsumptionPerSec,
		MaxCapacity:          cfg.Decision.MaxCapacity,
		HumidityThreshold:    cfg.Weather.HumidityThreshold,
		BlockWhenEmpty:       cfg.Decision.BlockWhenEmpty,
		RelayToMailbox:       cfg.Decision.RelayToMailbox,
		LowCapacityThreshold: cfg.Push.LowCapacityThreshold,
	}
}

// Deps are the collaborators an Engine calls. Weather and Voice may be nil when
// their credentials are not configured; requests that need them then fail with a
// configuration error. Notifier and Metrics are optional.
type Deps struct {
	States   store.StateStore
	Mailbox  store.Mailbox
	Weather  weather.Fetcher
	Voice    voice.Transcriber
	Catalog  *region.Catalog
	Notifier Notifier
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Engine holds no per-request state; all path dependence lives in the store.
type Engine struct {
	policy   Policy
	states   store.StateStore
	mailbox  store.Mailbox
	weather  weather.Fetcher
	voice    voice.Transcriber
	catalog  *region.Catalog
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates an engine.
func New(policy Policy, deps Deps) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Catalog == nil {
		deps.Catalog = region.NewCatalog(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = &metrics.Metrics{}
	}
	return &Engine{
		policy:   policy,
		states:   deps.States,
		mailbox:  deps.Mailbox,
		weather:  deps.Weather,
		voice:    deps.Voice,
		catalog:  deps.Catalog,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		now:      deps.Now,
	}
}

// Metrics returns the engine's counters.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Decide handles one request. The only errors returned are configuration errors;
// every other failure degrades to a well-formed Result.
func (e *Engine) Decide(ctx context.Context, req Request) (Result, error) {
	e.metrics.DecisionsTotal.Add(1)

	switch r := req.(type) {
	case WeatherRequest:
		c, err := e.weatherCandidate(ctx, r)
		if err != nil {
			return Result{}, err
		}
		return e.admit(ctx, r.DeviceID, c), nil
	case EmotionRequest:
		return e.admit(ctx, r.DeviceID, e.emotionCandidate(r)), nil
	case VoiceRequest:
		c, failed, err := e.voiceCandidate(ctx, r)
		if err != nil {
			return Result{}, err
		}
		if failed != nil {
			return *failed, nil
		}
		return e.admit(ctx, r.DeviceID, c), nil
	case ManualCommand:
		return e.manual(ctx, r), nil
	case PollRequest:
		return e.poll(ctx, r), nil
	default:
		return Result{}, fmt.Errorf("unsupported request type %T", req)
	}
}

func (e *Engine) storageError(op, deviceID string, err error) {
	e.metrics.StorageErrorsTotal.Add(1)
	log.Printf("Storage error (%s) for device %s: %v", op, deviceID, err)
}
