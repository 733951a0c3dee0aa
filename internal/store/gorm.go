package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/errs"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
)

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db          *gorm.DB
	maxCapacity float64
}

// NewGormStore creates a new GORM-backed store. maxCapacity seeds default device records.
func NewGormStore(db *gorm.DB, maxCapacity float64) Store {
	return &gormStore{db: db, maxCapacity: maxCapacity}
}

// LoadState fetches the device record, falling back to a fresh default.
func (s *gormStore) LoadState(ctx context.Context, deviceID string) (model.DeviceState, error) {
	var state model.DeviceState
	err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.NewDeviceState(deviceID, s.maxCapacity), nil
	}
	if err != nil {
		return model.DeviceState{}, errs.NewStorage(fmt.Sprintf("load state for %s", deviceID), err)
	}
	return state, nil
}

// SaveState upserts the full device record.
func (s *gormStore) SaveState(ctx context.Context, state model.DeviceState) error {
	state.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_dispense_time", "last_scent_code", "remaining_capacity", "last_weight_grams", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("save state for %s", state.DeviceID), err)
	}
	return nil
}

// AppendLog inserts an audit record.
func (s *gormStore) AppendLog(ctx context.Context, entry *model.DispenseLog) error {
	prepareLog(entry)
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errs.NewStorage(fmt.Sprintf("append log for %s", entry.DeviceID), err)
	}
	return nil
}

// RecentLogs lists a device's newest audit records.
func (s *gormStore) RecentLogs(ctx context.Context, deviceID string, limit int) ([]model.DispenseLog, error) {
	var logs []model.DispenseLog
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&logs).Error
	if err != nil {
		return nil, errs.NewStorage(fmt.Sprintf("list logs for %s", deviceID), err)
	}
	return logs, nil
}

// WriteCommand upserts the device's mailbox slot.
func (s *gormStore) WriteCommand(ctx context.Context, deviceID string, scentCode int, region string) error {
	entry := model.MailboxEntry{
		DeviceID:       deviceID,
		PendingCommand: scentCode,
		PendingRegion:  region,
		UpdatedAt:      time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pending_command", "pending_region", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return errs.NewStorage(fmt.Sprintf("write mailbox for %s", deviceID), err)
	}
	return nil
}

// ReadAndClearCommand drains the mailbox slot. The clear is conditional on the
// values just read, so two concurrent pollers cannot both receive the command.
func (s *gormStore) ReadAndClearCommand(ctx context.Context, deviceID string) (int, string, error) {
	var code int
	var region string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry model.MailboxEntry
		err := tx.Where("device_id = ?", deviceID).Take(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if entry.PendingCommand <= 0 {
			return nil
		}

		res := tx.Model(&model.MailboxEntry{}).
			Where("device_id = ? AND pending_command = ? AND pending_region = ?", deviceID, entry.PendingCommand, entry.PendingRegion).
			Updates(map[string]any{"pending_command": 0, "pending_region": "", "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another poller cleared it first.
			return nil
		}
		code, region = entry.PendingCommand, entry.PendingRegion
		return nil
	})
	if err != nil {
		return 0, "", errs.NewStorage(fmt.Sprintf("read mailbox for %s", deviceID), err)
	}
	return code, region, nil
}

// PutSubscription creates or replaces a subscription and its device list.
func (s *gormStore) PutSubscription(ctx context.Context, sub model.PushSubscription, deviceIDs []string) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.Devices = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return err
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SubscribedDevice{}).Error; err != nil {
			return err
		}

		links := make([]model.SubscribedDevice, 0, len(deviceIDs))
		seen := make(map[string]bool, len(deviceIDs))
		for _, id := range deviceIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			links = append(links, model.SubscribedDevice{Endpoint: sub.Endpoint, DeviceID: id})
		}
		if len(links) > 0 {
			return tx.Create(&links).Error
		}
		return nil
	})
	if err != nil {
		return errs.NewStorage("put subscription", err)
	}
	return nil
}

// GetSubscription loads a subscription with its devices.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Devices").Where("endpoint = ?", endpoint).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PushSubscription{}, ErrNotFound
	}
	if err != nil {
		return model.PushSubscription{}, errs.NewStorage("get subscription", err)
	}
	return sub, nil
}

// DeleteSubscription removes a subscription and its device links.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SubscribedDevice{}).Error; err != nil {
			return err
		}
		return tx.Where("endpoint = ?", endpoint).Delete(&model.PushSubscription{}).Error
	})
	if err != nil {
		return errs.NewStorage("delete subscription", err)
	}
	return nil
}

// SubscriptionsForDevice lists the subscriptions that want alerts for a device.
func (s *gormStore) SubscriptionsForDevice(ctx context.Context, deviceID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscribed_devices sd ON sd.endpoint = push_subscriptions.endpoint").
		Where("sd.device_id = ?", deviceID).
		Find(&subs).Error
	if err != nil {
		return nil, errs.NewStorage(fmt.Sprintf("list subscriptions for %s", deviceID), err)
	}
	return subs, nil
}

// Close releases the underlying connection pool.
func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
