// Package taskqueue moves hook delivery onto an asynq queue so failed
// deliveries are retried from redis instead of being dropped.
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sempgateway/internal/models"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeHookDelivery is the asynq task type for one hook call.
const TypeHookDelivery = "hook:deliver"

const (
	maxRetry    = 3
	taskTimeout = 10 * time.Second
)

// Deliverer performs the actual hook call.
type Deliverer interface {
	Deliver(ctx context.Context, n models.Notification) error
}

// Enqueuer is the part of asynq.Client the queue notifier uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewHookDeliveryTask wraps a notification in a task.
func NewHookDeliveryTask(n models.Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encoding hook task: %w", err)
	}
	return asynq.NewTask(TypeHookDelivery, payload), nil
}

// QueueNotifier enqueues a delivery task for every device with a hook.
type QueueNotifier struct {
	client Enqueuer
	logger zerolog.Logger
}

func NewQueueNotifier(client Enqueuer, logger zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, logger: logger}
}

func (q *QueueNotifier) Notify(ctx context.Context, n models.Notification) error {
	if n.HookURL == "" {
		return nil
	}
	task, err := NewHookDeliveryTask(n)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(maxRetry), asynq.Timeout(taskTimeout))
	if err != nil {
		return fmt.Errorf("enqueueing hook delivery for %s: %w", n.DeviceID, err)
	}
	q.logger.Debug().Str("task_id", info.ID).Str("device_id", n.DeviceID).Msg("hook delivery enqueued")
	return nil
}

// HandleHookDelivery returns the handler for TypeHookDelivery tasks.
// Undecodable payloads are not retried.
func HandleHookDelivery(d Deliverer, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var n models.Notification
		if err := json.Unmarshal(t.Payload(), &n); err != nil {
			return fmt.Errorf("decoding hook task: %v: %w", err, asynq.SkipRetry)
		}
		if n.HookURL == "" {
			return fmt.Errorf("hook task for %s has no url: %w", n.DeviceID, asynq.SkipRetry)
		}
		if err := d.Deliver(ctx, n); err != nil {
			logger.Warn().Err(err).Str("device_id", n.DeviceID).Msg("hook delivery failed")
			return err
		}
		logger.Debug().Str("device_id", n.DeviceID).Msg("hook delivered")
		return nil
	}
}
