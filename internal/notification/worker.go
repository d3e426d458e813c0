package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"store-monitor-backend/internal/model"
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

// ReportEvent announces that a report job has finished.
type ReportEvent struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan ReportEvent
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan ReportEvent, size*16),
		db:      db,
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

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			log.Printf("Worker %d processing report %s", id, ev.ReportID)
			wp.sendNotificationsForReport(ctx, ev)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a notification for a finished report. It never blocks the
// caller: when the queue is full the event is dropped.
func (wp *WorkerPool) Dispatch(reportID string, status string) {
	select {
	case wp.jobs <- ReportEvent{ReportID: reportID, Status: status}:
	default:
		log.Printf("Notification queue full; dropping event for report %s", reportID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan ReportEvent {
	return wp.jobs
}

// sendNotificationsForReport notifies every subscriber of the report, then
// forgets the subscriptions: a report finishes only once.
func (wp *WorkerPool) sendNotificationsForReport(ctx context.Context, ev ReportEvent) {
	var subscriptions []model.ReportSubscription
	if err := wp.db.WithContext(ctx).Where("report_id = ?", ev.ReportID).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for report %s: %v", ev.ReportID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error encoding notification for report %s: %v", ev.ReportID, err)
		return
	}

	log.Printf("Sending %d notifications for report %s", len(subscriptions), ev.ReportID)
	for _, sub := range subscriptions {
		wp.sendNotification(sub, payload)
	}

	if err := wp.db.WithContext(ctx).Where("report_id = ?", ev.ReportID).Delete(&model.ReportSubscription{}).Error; err != nil {
		log.Printf("Failed to delete subscriptions for report %s: %v", ev.ReportID, err)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(sub model.ReportSubscription, payload []byte) {
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

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired.", sub.Endpoint)
	} else if resp.StatusCode >= 400 {
		log.Printf("Push service rejected notification to %s: %s", sub.Endpoint, resp.Status)
	}
}
