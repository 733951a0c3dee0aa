package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/errs"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
)

var (
	bucketState         = []byte("device_state")
	bucketMailbox       = []byte("mailbox")
	bucketLogs          = []byte("dispense_log")
	bucketSubscriptions = []byte("push_subscriptions")
)

// boltSubscription is the stored form of a subscription; device ids live inline.
type boltSubscription struct {
	Endpoint  string    `json:"endpoint"`
	P256DH    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	DeviceIDs []string  `json:"device_ids"`
}

// boltStore implements Store on a single BoltDB file, for gateways without a SQL server.
type boltStore struct {
	db          *bolt.DB
	maxCapacity float64
}

// NewBoltStore opens (or creates) a BoltDB database at path.
func NewBoltStore(path string, maxCapacity float64) (Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketState, bucketMailbox, bucketLogs, bucketSubscriptions} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &boltStore{db: db, maxCapacity: maxCapacity}, nil
}

// logKey orders entries by device, then by ULID.
func logKey(deviceID, id string) []byte {
	return []byte(deviceID + "\x00" + id)
}

// LoadState reads the device record, falling back to a fresh default.
func (s *boltStore) LoadState(_ context.Context, deviceID string) (model.DeviceState, error) {
	state := model.NewDeviceState(deviceID, s.maxCapacity)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketState).Get([]byte(deviceID))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &state)
	})
	if err != nil {
		return model.DeviceState{}, errs.NewStorage(fmt.Sprintf("load state for %s", deviceID), err)
	}
	return state, nil
}

// SaveState overwrites the device record.
func (s *boltStore) SaveState(_ context.Context, state model.DeviceState) error {
	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("save state for %s", state.DeviceID), err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put([]byte(state.DeviceID), data)
	})
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("save state for %s", state.DeviceID), err)
	}
	return nil
}

// AppendLog stores an audit record under its device prefix.
func (s *boltStore) AppendLog(_ context.Context, entry *model.DispenseLog) error {
	prepareLog(entry)
	data, err := json.Marshal(entry)
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("append log for %s", entry.DeviceID), err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLogs).Put(logKey(entry.DeviceID, entry.ID), data)
	})
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("append log for %s", entry.DeviceID), err)
	}
	return nil
}

// RecentLogs walks the device prefix backwards from its end.
func (s *boltStore) RecentLogs(_ context.Context, deviceID string, limit int) ([]model.DispenseLog, error) {
	limit = clampLimit(limit)
	prefix := []byte(deviceID + "\x00")
	logs := make([]model.DispenseLog, 0, limit)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLogs).Cursor()

		// "\x01" sorts right after the "\x00" separator, so Seek lands past the prefix.
		k, v := c.Seek([]byte(deviceID + "\x01"))
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, prefix) && len(logs) < limit; k, v = c.Prev() {
			var entry model.DispenseLog
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			logs = append(logs, entry)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewStorage(fmt.Sprintf("list logs for %s", deviceID), err)
	}
	return logs, nil
}

// WriteCommand overwrites the device's mailbox slot.
func (s *boltStore) WriteCommand(_ context.Context, deviceID string, scentCode int, region string) error {
	data, err := json.Marshal(model.MailboxEntry{
		DeviceID:       deviceID,
		PendingCommand: scentCode,
		PendingRegion:  region,
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("write mailbox for %s", deviceID), err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMailbox).Put([]byte(deviceID), data)
	})
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("write mailbox for %s", deviceID), err)
	}
	return nil
}

// ReadAndClearCommand reads and clears the slot inside one write transaction.
func (s *boltStore) ReadAndClearCommand(_ context.Context, deviceID string) (int, string, error) {
	var code int
	var region string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMailbox)
		v := b.Get([]byte(deviceID))
		if v == nil {
			return nil
		}
		var entry model.MailboxEntry
		if err := json.Unmarshal(v, &entry); err != nil {
			return err
		}
		if entry.PendingCommand <= 0 {
			return nil
		}
		code, region = entry.PendingCommand, entry.PendingRegion

		entry.PendingCommand, entry.PendingRegion, entry.UpdatedAt = 0, "", time.Now()
		cleared, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put([]byte(deviceID), cleared)
	})
	if err != nil {
		return 0, "", errs.NewStorage(fmt.Sprintf("read mailbox for %s", deviceID), err)
	}
	return code, region, nil
}

// PutSubscription creates or replaces a subscription.
func (s *boltStore) PutSubscription(_ context.Context, sub model.PushSubscription, deviceIDs []string) error {
	rec := boltSubscription{
		Endpoint:  sub.Endpoint,
		P256DH:    sub.P256DH,
		Auth:      sub.Auth,
		CreatedAt: sub.CreatedAt,
	}
	seen := make(map[string]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		rec.DeviceIDs = append(rec.DeviceIDs, id)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSubscriptions)
		if prev := b.Get([]byte(sub.Endpoint)); prev != nil {
			var old boltSubscription
			if err := json.Unmarshal(prev, &old); err == nil && !old.CreatedAt.IsZero() {
				rec.CreatedAt = old.CreatedAt
			}
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(sub.Endpoint), data)
	})
	if err != nil {
		return errs.NewStorage("put subscription", err)
	}
	return nil
}

// GetSubscription loads a subscription with its devices.
func (s *boltStore) GetSubscription(_ context.Context, endpoint string) (model.PushSubscription, error) {
	var rec boltSubscription
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSubscriptions).Get([]byte(endpoint))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return model.PushSubscription{}, errs.NewStorage("get subscription", err)
	}
	if !found {
		return model.PushSubscription{}, ErrNotFound
	}
	return rec.toModel(), nil
}

// DeleteSubscription removes a subscription. Deleting a missing one is not an error.
func (s *boltStore) DeleteSubscription(_ context.Context, endpoint string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSubscriptions).Delete([]byte(endpoint))
	})
	if err != nil {
		return errs.NewStorage("delete subscription", err)
	}
	return nil
}

// SubscriptionsForDevice scans every subscription; the bucket stays small.
func (s *boltStore) SubscriptionsForDevice(_ context.Context, deviceID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSubscriptions).ForEach(func(_, v []byte) error {
			var rec boltSubscription
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			for _, id := range rec.DeviceIDs {
				if id == deviceID {
					subs = append(subs, rec.toModel())
					break
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, errs.NewStorage(fmt.Sprintf("list subscriptions for %s", deviceID), err)
	}
	return subs, nil
}

// Close closes the underlying BoltDB.
func (s *boltStore) Close() error {
	return s.db.Close()
}

func (r boltSubscription) toModel() model.PushSubscription {
	sub := model.PushSubscription{
		Endpoint:  r.Endpoint,
		P256DH:    r.P256DH,
		Auth:      r.Auth,
		CreatedAt: r.CreatedAt,
	}
	for _, id := range r.DeviceIDs {
		sub.Devices = append(sub.Devices, model.SubscribedDevice{Endpoint: r.Endpoint, DeviceID: id})
	}
	return sub
}
