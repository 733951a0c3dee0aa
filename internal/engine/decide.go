package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/classify"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
)

// CooldownRemaining reports whether switching to candidate is blocked at now and,
// if so, how many whole minutes remain. Repeating the last scent is never blocked.
func CooldownRemaining(state model.DeviceState, candidate int, now time.Time, cooldownMinutes float64) (int, bool) {
	if candidate == state.LastScentCode {
		return 0, false
	}
	elapsed := now.Sub(state.LastDispenseTime).Minutes()
	if elapsed >= cooldownMinutes {
		return 0, false
	}
	return int(math.Floor(cooldownMinutes - elapsed)), true
}

// Consume returns the capacity left after dispensing for duration seconds,
// clamped at zero and rounded to two decimals.
func Consume(capacity float64, duration int, perSec float64) float64 {
	left := capacity - float64(duration)*perSec
	if left < 0 {
		left = 0
	}
	return math.Round(left*100) / 100
}

func (e *Engine) loadState(ctx context.Context, deviceID string) model.DeviceState {
	state, err := e.states.LoadState(ctx, deviceID)
	if err != nil {
		// Unknown state behaves as a device that never dispensed.
		e.storageError("load state", deviceID, err)
		return model.NewDeviceState(deviceID, e.policy.MaxCapacity)
	}
	return state
}

func (e *Engine) admit(ctx context.Context, deviceID string, c candidate) Result {
	now := e.now()
	state := e.loadState(ctx, deviceID)
	out := c.outcome

	entry := &model.DispenseLog{
		Timestamp:    now,
		DeviceID:     deviceID,
		Mode:         out.Mode,
		ResultText:   out.Label,
		ScentCode:    out.ScentCode,
		Duration:     out.Duration,
		Region:       c.region,
		WeightGrams:  c.weight,
		Temperature:  c.temperature,
		Humidity:     c.humidity,
		VoiceText:    c.voiceText,
		VoiceClipKey: c.clipKey,
	}

	if remaining, blocked := CooldownRemaining(state, out.ScentCode, now, e.policy.CooldownMinutes); blocked {
		reason := fmt.Sprintf("[쿨타임] 향기 변경 불가 (%d분 남음)", remaining)
		log.Printf("%s device=%s candidate=%d", reason, deviceID, out.ScentCode)
		e.metrics.DispensesBlockedTotal.Add(1)
		e.appendLog(ctx, entry, model.StatusBlocked, reason)
		return Result{
			Kind:              KindBlocked,
			ResultText:        ResultWait,
			Message:           reason,
			Mode:              ModeCoolDown,
			RemainingCapacity: state.RemainingCapacity,
		}
	}

	if e.policy.BlockWhenEmpty && out.ScentCode > 0 && state.RemainingCapacity <= 0 {
		log.Printf("Reservoir empty, refusing dispense for device %s", deviceID)
		e.metrics.EmptyBlockedTotal.Add(1)
		e.appendLog(ctx, entry, model.StatusBlocked, MessageEmpty)
		return Result{
			Kind:       KindEmpty,
			ResultText: ResultEmpty,
			Message:    MessageEmpty,
			Mode:       ModeRefill,
		}
	}

	// Reported for every allowed candidate; only a real scent is persisted.
	capacity := Consume(state.RemainingCapacity, out.Duration, e.policy.ConsumptionPerSec)
	if out.ScentCode > 0 {
		next := model.DeviceState{
			DeviceID:          deviceID,
			LastDispenseTime:  now,
			LastScentCode:     out.ScentCode,
			RemainingCapacity: capacity,
			LastWeightGrams:   c.weight,
		}
		if err := e.states.SaveState(ctx, next); err != nil {
			e.storageError("save state", deviceID, err)
		} else {
			e.checkLowCapacity(deviceID, state.RemainingCapacity, capacity)
		}
		if e.policy.RelayToMailbox {
			if err := e.mailbox.WriteCommand(ctx, deviceID, out.ScentCode, ""); err != nil {
				e.storageError("relay to mailbox", deviceID, err)
			}
		}
	}

	e.metrics.DispensesAllowedTotal.Add(1)
	e.appendLog(ctx, entry, model.StatusSuccess, "")

	res := Result{
		Kind:              KindDispensed,
		ScentCode:         out.ScentCode,
		Duration:          out.Duration,
		ResultText:        out.Label,
		Message:           fmt.Sprintf("분사 성공! (%s)", out.Label),
		Mode:              out.Mode,
		RemainingCapacity: capacity,
		Temperature:       c.temperature,
		Humidity:          c.humidity,
	}
	if out.Mode == classify.ModeVoice {
		res.Message = out.Label
		res.VoiceText = c.voiceText
	}
	return res
}

func (e *Engine) appendLog(ctx context.Context, entry *model.DispenseLog, status, reason string) {
	entry.Status = status
	entry.BlockReason = reason
	if err := e.states.AppendLog(ctx, entry); err != nil {
		e.storageError("append log", entry.DeviceID, err)
	}
}

// checkLowCapacity fires once when capacity crosses below the alert threshold.
func (e *Engine) checkLowCapacity(deviceID string, before, after float64) {
	threshold := e.policy.LowCapacityThreshold
	if e.notifier == nil || threshold <= 0 {
		return
	}
	if before >= threshold && after < threshold {
		e.metrics.LowCapacityAlerts.Add(1)
		e.notifier.NotifyLowCapacity(deviceID, after)
	}
}
