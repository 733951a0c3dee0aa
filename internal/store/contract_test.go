package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
)

// runStoreContract exercises behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("LoadState returns unpersisted default", func(t *testing.T) {
		s := newStore(t)
		state, err := s.LoadState(ctx, "ESP32_A")
		require.NoError(t, err)
		assert.Equal(t, "ESP32_A", state.DeviceID)
		assert.Equal(t, 0, state.LastScentCode)
		assert.Equal(t, 100.0, state.RemainingCapacity)
		assert.True(t, state.LastDispenseTime.Equal(model.DefaultEpoch))
	})

	t.Run("SaveState overwrites wholesale", func(t *testing.T) {
		s := newStore(t)
		first := time.Now().Add(-time.Hour).Truncate(time.Second)
		require.NoError(t, s.SaveState(ctx, model.DeviceState{
			DeviceID: "ESP32_A", LastDispenseTime: first, LastScentCode: 1, RemainingCapacity: 98.5, LastWeightGrams: 210,
		}))
		second := time.Now().Truncate(time.Second)
		require.NoError(t, s.SaveState(ctx, model.DeviceState{
			DeviceID: "ESP32_A", LastDispenseTime: second, LastScentCode: 3, RemainingCapacity: 97,
		}))

		state, err := s.LoadState(ctx, "ESP32_A")
		require.NoError(t, err)
		assert.Equal(t, 3, state.LastScentCode)
		assert.Equal(t, 97.0, state.RemainingCapacity)
		assert.Equal(t, 0.0, state.LastWeightGrams)
		assert.WithinDuration(t, second, state.LastDispenseTime, time.Second)
	})

	t.Run("mailbox read clears once", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.WriteCommand(ctx, "ESP32_A", 2, "부산"))

		code, region, err := s.ReadAndClearCommand(ctx, "ESP32_A")
		require.NoError(t, err)
		assert.Equal(t, 2, code)
		assert.Equal(t, "부산", region)

		code, region, err = s.ReadAndClearCommand(ctx, "ESP32_A")
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Equal(t, "", region)
	})

	t.Run("mailbox write overwrites unread command", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.WriteCommand(ctx, "ESP32_A", 2, "부산"))
		require.NoError(t, s.WriteCommand(ctx, "ESP32_A", 4, ""))

		code, region, err := s.ReadAndClearCommand(ctx, "ESP32_A")
		require.NoError(t, err)
		assert.Equal(t, 4, code)
		assert.Equal(t, "", region)
	})

	t.Run("mailbox empty for unknown device", func(t *testing.T) {
		s := newStore(t)
		code, region, err := s.ReadAndClearCommand(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Equal(t, "", region)
	})

	t.Run("mailbox is separate from device state", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.WriteCommand(ctx, "ESP32_A", 3, "제주"))
		require.NoError(t, s.SaveState(ctx, model.DeviceState{DeviceID: "ESP32_A", LastDispenseTime: time.Now(), LastScentCode: 1, RemainingCapacity: 50}))

		code, region, err := s.ReadAndClearCommand(ctx, "ESP32_A")
		require.NoError(t, err)
		assert.Equal(t, 3, code)
		assert.Equal(t, "제주", region)
	})

	t.Run("concurrent polls deliver at most once", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.WriteCommand(ctx, "ESP32_A", 1, ""))

		var wg sync.WaitGroup
		var mu sync.Mutex
		delivered := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				code, _, err := s.ReadAndClearCommand(ctx, "ESP32_A")
				if err == nil && code > 0 {
					mu.Lock()
					delivered++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, delivered)
	})

	t.Run("logs newest first per device", func(t *testing.T) {
		s := newStore(t)
		base := time.Now().Add(-time.Minute)
		for i := 0; i < 5; i++ {
			require.NoError(t, s.AppendLog(ctx, &model.DispenseLog{
				Timestamp:  base.Add(time.Duration(i) * time.Second),
				DeviceID:   "ESP32_A",
				Mode:       "Weather_Mode",
				ResultText: fmt.Sprintf("run %d", i),
				ScentCode:  1,
				Duration:   3,
				Status:     model.StatusSuccess,
			}))
		}
		require.NoError(t, s.AppendLog(ctx, &model.DispenseLog{
			Timestamp: base, DeviceID: "ESP32_B", Mode: "Emotion_Mode", ResultText: "other", Status: model.StatusBlocked,
		}))

		logs, err := s.RecentLogs(ctx, "ESP32_A", 3)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, "run 4", logs[0].ResultText)
		assert.Equal(t, "run 3", logs[1].ResultText)
		assert.Equal(t, "run 2", logs[2].ResultText)
		assert.Len(t, logs[0].ID, 26)

		other, err := s.RecentLogs(ctx, "ESP32_B", 10)
		require.NoError(t, err)
		require.Len(t, other, 1)
		assert.Equal(t, model.StatusBlocked, other[0].Status)
	})

	t.Run("subscriptions lifecycle", func(t *testing.T) {
		s := newStore(t)
		sub := model.PushSubscription{Endpoint: "https://push.example.com/a", P256DH: "key", Auth: "auth"}
		require.NoError(t, s.PutSubscription(ctx, sub, []string{"ESP32_A", "ESP32_B", "ESP32_A"}))

		got, err := s.GetSubscription(ctx, sub.Endpoint)
		require.NoError(t, err)
		assert.Equal(t, "key", got.P256DH)
		assert.ElementsMatch(t, []string{"ESP32_A", "ESP32_B"}, deviceIDs(got))

		sub.Auth = "auth2"
		require.NoError(t, s.PutSubscription(ctx, sub, []string{"ESP32_B"}))

		forA, err := s.SubscriptionsForDevice(ctx, "ESP32_A")
		require.NoError(t, err)
		assert.Empty(t, forA)

		forB, err := s.SubscriptionsForDevice(ctx, "ESP32_B")
		require.NoError(t, err)
		require.Len(t, forB, 1)
		assert.Equal(t, "auth2", forB[0].Auth)

		require.NoError(t, s.DeleteSubscription(ctx, sub.Endpoint))
		_, err = s.GetSubscription(ctx, sub.Endpoint)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func deviceIDs(sub model.PushSubscription) []string {
	ids := make([]string, 0, len(sub.Devices))
	for _, d := range sub.Devices {
		ids = append(ids, d.DeviceID)
	}
	return ids
}
