package store

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
)

// ErrNotFound is returned when a looked-up subscription does not exist.
var ErrNotFound = errors.New("record not found")

// StateStore persists per-device dispense state and the audit log.
type StateStore interface {
	// LoadState returns the stored record, or the default record (not persisted) when none exists.
	LoadState(ctx context.Context, deviceID string) (model.DeviceState, error)
	// SaveState overwrites the whole record. Last writer wins.
	SaveState(ctx context.Context, state model.DeviceState) error
	// AppendLog records one decision. An empty ID is filled with a ULID.
	AppendLog(ctx context.Context, entry *model.DispenseLog) error
	// RecentLogs returns up to limit entries for a device, newest first.
	RecentLogs(ctx context.Context, deviceID string, limit int) ([]model.DispenseLog, error)
}

// Mailbox relays a single pending command from the app to a polling device.
type Mailbox interface {
	// WriteCommand overwrites any unread command for the device.
	WriteCommand(ctx context.Context, deviceID string, scentCode int, region string) error
	// ReadAndClearCommand returns (0, "") when nothing is pending. A non-zero command
	// is cleared in the same operation that reads it, so it is delivered at most once.
	ReadAndClearCommand(ctx context.Context, deviceID string) (int, string, error)
}

// SubscriptionStore keeps web push subscriptions for reservoir alerts.
type SubscriptionStore interface {
	PutSubscription(ctx context.Context, sub model.PushSubscription, deviceIDs []string) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForDevice(ctx context.Context, deviceID string) ([]model.PushSubscription, error)
}

// Store defines the interface for all persistence operations.
type Store interface {
	StateStore
	Mailbox
	SubscriptionStore
	Close() error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newLogID returns a ULID so log ids sort by timestamp. Ids minted within the
// same millisecond still increase.
func newLogID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func prepareLog(entry *model.DispenseLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID == "" {
		entry.ID = newLogID(entry.Timestamp)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 200 {
		return 200
	}
	return limit
}
