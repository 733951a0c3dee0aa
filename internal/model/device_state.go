package model

import "time"

// DefaultEpoch is the last-dispense time assumed for a device that never dispensed.
var DefaultEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.FixedZone("KST", 9*60*60))

// DeviceState is the persisted per-device record (hot table, one row per device).
type DeviceState struct {
	DeviceID          string    `gorm:"primaryKey;size:128" json:"deviceId"`
	LastDispenseTime  time.Time `gorm:"not null" json:"lastDispenseTime"`
	LastScentCode     int       `gorm:"not null;default:0" json:"lastScentCode"`
	RemainingCapacity float64   `gorm:"not null" json:"remainingCapacity"`
	LastWeightGrams   float64   `json:"lastWeightGrams"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewDeviceState returns the lazily-created default record. It is not persisted.
func NewDeviceState(deviceID string, maxCapacity float64) DeviceState {
	return DeviceState{
		DeviceID:          deviceID,
		LastDispenseTime:  DefaultEpoch,
		LastScentCode:     0,
		RemainingCapacity: maxCapacity,
	}
}
