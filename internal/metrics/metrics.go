package metrics

import "sync/atomic"

// Metrics holds atomic counters for observability.
type Metrics struct {
	DecisionsTotal        atomic.Int64
	DispensesAllowedTotal atomic.Int64
	DispensesBlockedTotal atomic.Int64
	EmptyBlockedTotal     atomic.Int64
	ManualCommandsTotal   atomic.Int64
	PollsDeliveredTotal   atomic.Int64
	PollsEmptyTotal       atomic.Int64
	WeatherFallbackTotal  atomic.Int64
	VoiceFailuresTotal    atomic.Int64
	StorageErrorsTotal    atomic.Int64
	LowCapacityAlerts     atomic.Int64
}

// Snapshot returns all metrics as a string-keyed map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"decisions_total":         m.DecisionsTotal.Load(),
		"dispenses_allowed_total": m.DispensesAllowedTotal.Load(),
		"dispenses_blocked_total": m.DispensesBlockedTotal.Load(),
		"empty_blocked_total":     m.EmptyBlockedTotal.Load(),
		"manual_commands_total":   m.ManualCommandsTotal.Load(),
		"polls_delivered_total":   m.PollsDeliveredTotal.Load(),
		"polls_empty_total":       m.PollsEmptyTotal.Load(),
		"weather_fallback_total":  m.WeatherFallbackTotal.Load(),
		"voice_failures_total":    m.VoiceFailuresTotal.Load(),
		"storage_errors_total":    m.StorageErrorsTotal.Load(),
		"low_capacity_alerts":     m.LowCapacityAlerts.Load(),
	}
}
