package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/SherClockHolmes/webpush-go"

	"atm-fleet-backend/internal/model"
)

// Job is one assignment notice queued for delivery.
type Job struct {
	Engineer model.User
	Task     model.Task
}

// WorkerPool manages a pool of workers delivering assignment notices over
// web push and text message. Delivery is best-effort: failures are logged
// and never surface to the assignment engine.
type WorkerPool struct {
	size    int
	jobs    chan Job
	webpush *webpush.Options
	push    PushSender
	text    TextSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, webpushOptions *webpush.Options, text TextSender) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*2),
		webpush: webpushOptions,
		push:    &WebPushSender{},
		text:    text,
	}
}

// SetPushSender replaces the push backend, for tests.
func (wp *WorkerPool) SetPushSender(s PushSender) {
	wp.push = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.deliver(ctx, job)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// NotifyAssignment queues an assignment notice. Satisfies the assignment
// engine's Notifier without letting a full queue block ticket creation.
func (wp *WorkerPool) NotifyAssignment(engineer model.User, task model.Task) {
	select {
	case wp.jobs <- Job{Engineer: engineer, Task: task}:
	default:
		log.Printf("Notification queue full; dropping notice for task %s", task.ID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, job Job) {
	summary := fmt.Sprintf("New %s task at ATM %s: %s",
		job.Task.TaskTitle, job.Task.AtmID, job.Task.IssueDescription)

	wp.sendPush(ctx, job, summary)

	if wp.text != nil && job.Engineer.PhoneNumber != "" {
		if err := wp.text.SendText(ctx, job.Engineer.PhoneNumber, summary); err != nil {
			log.Printf("Error sending text to engineer %s: %v", job.Engineer.ID, err)
		}
	}
}

func (wp *WorkerPool) sendPush(ctx context.Context, job Job, summary string) {
	if !job.Engineer.HasPushSubscription() {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"title":  "New task assigned",
		"body":   summary,
		"taskId": job.Task.ID,
		"atmId":  job.Task.AtmID,
	})
	if err != nil {
		log.Printf("Error marshalling push payload for task %s: %v", job.Task.ID, err)
		return
	}

	sub := &webpush.Subscription{
		Endpoint: job.Engineer.PushEndpoint,
		Keys: webpush.Keys{
			P256dh: job.Engineer.PushP256DH,
			Auth:   job.Engineer.PushAuth,
		},
	}

	resp, err := wp.push.Send(payload, sub, wp.webpush)
	if err != nil {
		log.Printf("Error sending push to engineer %s: %v", job.Engineer.ID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 410 {
		log.Printf("Push subscription for engineer %s is expired", job.Engineer.ID)
	}
}
