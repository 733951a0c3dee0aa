package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`

	// Associations
	Devices []SubscribedDevice `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE" json:"devices"`
}

// SubscribedDevice links a subscription to a diffuser it wants reservoir alerts for.
type SubscribedDevice struct {
	Endpoint string `gorm:"primaryKey" json:"-"`
	DeviceID string `gorm:"primaryKey;size:128;index" json:"deviceId"`
}
