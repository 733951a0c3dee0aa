package notification

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// LowCapacityJob asks the pool to alert a device's subscribers.
type LowCapacityJob struct {
	DeviceID  string
	Remaining float64
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan LowCapacityJob
	subs    store.SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs store.SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan LowCapacityJob, size*4),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Worker %d processing low reservoir alert for %s", id, job.DeviceID)
			wp.sendNotificationsForDevice(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// NotifyLowCapacity queues an alert. It never blocks the dispense path; when the
// queue is full the alert is dropped.
func (wp *WorkerPool) NotifyLowCapacity(deviceID string, remaining float64) {
	select {
	case wp.jobs <- LowCapacityJob{DeviceID: deviceID, Remaining: remaining}:
	default:
		log.Printf("Notification queue full, dropping alert for %s", deviceID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan LowCapacityJob {
	return wp.jobs
}

// Message renders the alert text.
func Message(deviceID string, remaining float64) string {
	return fmt.Sprintf("디퓨저 %s 잔량 %d%% 남음", deviceID, int(math.Round(remaining)))
}

func (wp *WorkerPool) sendNotificationsForDevice(ctx context.Context, job LowCapacityJob) {
	subscriptions, err := wp.subs.SubscriptionsForDevice(ctx, job.DeviceID)
	if err != nil {
		log.Printf("Error fetching subscriptions for device %s: %v", job.DeviceID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for device %s", len(subscriptions), job.DeviceID)

	payload := []byte(Message(job.DeviceID, job.Remaining))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
