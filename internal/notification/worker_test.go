package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a subscription store over a mock database connection.
func newTestStore(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return store.NewGormStore(gormDB, 100), mock
}

const subscriptionsQuery = `SELECT .* FROM "push_subscriptions".*JOIN subscribed_devices sd.*WHERE sd\.device_id = \$1`

func TestWorkerPool_NotifyLowCapacity(t *testing.T) {
	subs, _ := newTestStore(t)
	wp := NewWorkerPool(1, subs, &webpush.Options{})

	wp.NotifyLowCapacity("ESP32_A", 18.5)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, LowCapacityJob{DeviceID: "ESP32_A", Remaining: 18.5}, job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DropsWhenQueueFull(t *testing.T) {
	subs, _ := newTestStore(t)
	wp := NewWorkerPool(1, subs, &webpush.Options{})

	for i := 0; i < cap(wp.Jobs())+3; i++ {
		wp.NotifyLowCapacity("ESP32_A", 10)
	}
	assert.Len(t, wp.Jobs(), cap(wp.Jobs()))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "디퓨저 ESP32_A 잔량 19% 남음", Message("ESP32_A", 19.25))
	assert.Equal(t, "디퓨저 kitchen 잔량 0% 남음", Message("kitchen", 0))
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	subs, mock := newTestStore(t)
	wp := NewWorkerPool(1, subs, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.Equal(t, "디퓨저 ESP32_A 잔량 19% 남음", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(subscriptionsQuery).
			WithArgs("ESP32_A").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", time.Now()))

		wp.NotifyLowCapacity("ESP32_A", 19.4)
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(subscriptionsQuery).
			WithArgs("ESP32_B").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "p", "a", time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "subscribed_devices" WHERE endpoint = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE endpoint = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		wp.NotifyLowCapacity("ESP32_B", 5)

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("skips devices without subscribers", func(t *testing.T) {
		var sent atomic.Bool
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				sent.Store(true)
				return nil, nil
			},
		}

		mock.ExpectQuery(subscriptionsQuery).
			WithArgs("ESP32_C").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

		wp.NotifyLowCapacity("ESP32_C", 3)

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		assert.False(t, sent.Load())
	})
}
