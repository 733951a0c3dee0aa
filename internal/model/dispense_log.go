package model

import "time"

// Dispense statuses recorded in the audit log.
const (
	StatusSuccess = "SUCCESS"
	StatusBlocked = "BLOCKED"
)

// DispenseLog is one append-only audit record per decision made.
type DispenseLog struct {
	ID           string    `gorm:"primaryKey;size:26" json:"id"` // ULID
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
	DeviceID     string    `gorm:"size:128;not null;index" json:"deviceId"`
	Mode         string    `gorm:"size:32;not null" json:"mode"`
	ResultText   string    `gorm:"not null" json:"resultText"`
	ScentCode    int       `gorm:"not null" json:"scentCode"`
	Duration     int       `gorm:"not null" json:"duration"`
	Region       string    `gorm:"size:64" json:"region"` // region, or category label such as "Emotion"
	WeightGrams  float64   `json:"weightGrams"`
	Status       string    `gorm:"size:16;not null" json:"status"`
	BlockReason  string    `json:"blockReason,omitempty"`
	Temperature  string    `gorm:"size:16" json:"temperature,omitempty"`
	Humidity     string    `gorm:"size:16" json:"humidity,omitempty"`
	VoiceText    string    `json:"voiceText,omitempty"`
	VoiceClipKey string    `json:"voiceClipKey,omitempty"`
}
