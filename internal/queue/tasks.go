package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeCatalogWarm refreshes the cached catalog snapshot from its upstream.
const TypeCatalogWarm = "catalog:warm"

// DefaultQueue is the asynq queue catalog tasks run on.
const DefaultQueue = "default"

// CatalogWarmPayload describes why a refresh was requested.
type CatalogWarmPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewCatalogWarmTask builds a catalog refresh task. Refreshes are cheap to
// repeat, so a duplicate within the uniqueness window is dropped by the broker.
func NewCatalogWarmTask(reason string, now time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(CatalogWarmPayload{Reason: reason, RequestedAt: now.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCatalogWarm, payload,
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Unique(30*time.Second),
	), nil
}

// Enqueuer hands tasks to the broker. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueCatalogWarm schedules a refresh. A refresh that is already queued
// is not an error and yields an empty task id.
func EnqueueCatalogWarm(ctx context.Context, enq Enqueuer, reason string) (string, error) {
	if enq == nil {
		return "", errors.New("queue: enqueuer not configured")
	}
	task, err := NewCatalogWarmTask(reason, time.Now())
	if err != nil {
		return "", err
	}
	info, err := enq.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		QueueEnqueuedTotal.WithLabelValues(TypeCatalogWarm, "duplicate").Inc()
		return "", nil
	}
	QueueEnqueuedTotal.WithLabelValues(TypeCatalogWarm, status(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeCatalogWarm, err)
	}
	return info.ID, nil
}
