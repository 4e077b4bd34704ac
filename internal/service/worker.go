package service

import (
	"area-picker/internal/host"
	"area-picker/internal/metrics"
	"area-picker/internal/model"
	"area-picker/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	popTimeout     = 5 * time.Second
	defaultBackoff = 2 * time.Second
)

type TaskQueue interface {
	PushWebhookTask(ctx context.Context, task model.WebhookPayload) error
	BLPopWebhookTask(ctx context.Context, timeout time.Duration) (string, error)
}

type WebhookWorker struct {
	queue       TaskQueue
	sender      host.Sender
	logger      *logrus.Logger
	maxAttempts int
	errBackoff  time.Duration
}

// NewWebhookWorker builds a worker that waits backoff*attempts before a failed task is queued again.
func NewWebhookWorker(queue TaskQueue, sender host.Sender, logger *logrus.Logger, maxAttempts int, backoff time.Duration) *WebhookWorker {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &WebhookWorker{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		maxAttempts: maxAttempts,
		errBackoff:  backoff,
	}
}

func (w *WebhookWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			res, err := w.queue.BLPopWebhookTask(ctx, popTimeout)
			if errors.Is(err, repository.ErrQueueEmpty) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.WithError(err).Error("BLPop error")
				w.sleep(ctx, w.errBackoff)
				continue
			}

			var task model.WebhookPayload
			if err := json.Unmarshal([]byte(res), &task); err != nil {
				w.logger.WithError(err).Error("unmarshal webhook task error")
				continue
			}

			w.deliver(ctx, task)
		}
	}
}

func (w *WebhookWorker) deliver(ctx context.Context, task model.WebhookPayload) {
	log := w.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"area_id": task.Payload.AreaID,
	})

	start := time.Now()
	err := w.sender.Send(ctx, task)
	metrics.DeliveryDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if err == nil {
		metrics.DeliveriesTotal.WithLabelValues("ok").Inc()
		log.Info("selection delivered to host")
		return
	}

	task.Attempts++
	if errors.Is(err, host.ErrNoChatID) {
		metrics.DeliveriesTotal.WithLabelValues("dropped").Inc()
		log.WithError(err).Error("selection cannot be delivered, dropping task")
		return
	}
	if task.Attempts >= w.maxAttempts {
		metrics.DeliveriesTotal.WithLabelValues("dropped").Inc()
		log.WithError(err).WithField("attempts", task.Attempts).Error("selection delivery failed, dropping task")
		return
	}

	metrics.DeliveriesTotal.WithLabelValues("retry").Inc()
	log.WithError(err).WithField("attempts", task.Attempts).Warn("selection delivery failed, requeueing")
	// the task stays invisible for the backoff; ctx may be cancelled by then and the task must survive shutdown
	w.sleep(ctx, w.errBackoff*time.Duration(task.Attempts))
	if err := w.queue.PushWebhookTask(context.WithoutCancel(ctx), task); err != nil {
		log.WithError(err).Error("failed to requeue selection")
	}
}

func (w *WebhookWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
