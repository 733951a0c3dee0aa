package model

import "time"

// MailboxEntry is the single-slot command relay between the app and a polling device.
// PendingCommand 0 means empty.
type MailboxEntry struct {
	DeviceID       string `gorm:"primaryKey;size:128"`
	PendingCommand int    `gorm:"not null;default:0"`
	PendingRegion  string `gorm:"size:64;not null;default:''"`
	UpdatedAt      time.Time
}
