package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// CatalogWarmer re-reads the catalog upstream and rewrites the cached
// snapshot, returning the number of records stored.
type CatalogWarmer interface {
	Refresh(ctx context.Context) (int, error)
}

// WarmHandler processes TypeCatalogWarm tasks.
type WarmHandler struct {
	Warmer CatalogWarmer
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler. Malformed payloads are not retried.
func (h WarmHandler) ProcessTask(ctx context.Context, task *asynq.Task) (err error) {
	defer func() { QueueProcessedTotal.WithLabelValues(task.Type(), status(err)).Inc() }()

	if h.Warmer == nil {
		return fmt.Errorf("catalog warmer not configured: %w", asynq.SkipRetry)
	}
	var payload CatalogWarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}

	logger := h.Logger.With().Str("task", task.Type()).Str("reason", payload.Reason).Logger()
	if id, ok := asynq.GetTaskID(ctx); ok {
		logger = logger.With().Str("task_id", id).Logger()
	}
	ctx = logger.WithContext(ctx)

	start := time.Now()
	records, err := h.Warmer.Refresh(ctx)
	if err != nil {
		retry, _ := asynq.GetRetryCount(ctx)
		logger.Warn().Err(err).Int("retry", retry).Msg("catalog_warm_failed")
		return err
	}
	logger.Info().Int("records", records).Dur("took", time.Since(start)).Msg("catalog_warmed")
	return nil
}

// NewMux routes catalog tasks to warmer.
func NewMux(warmer CatalogWarmer, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeCatalogWarm, WarmHandler{Warmer: warmer, Logger: logger})
	return mux
}

// IsSkipRetry reports whether err asked the broker not to retry.
func IsSkipRetry(err error) bool {
	return errors.Is(err, asynq.SkipRetry)
}
