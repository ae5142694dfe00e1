package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// ServerConfig configures the task server.
type ServerConfig struct {
	Redis       asynq.RedisConnOpt
	Concurrency int
	Logger      zerolog.Logger
}

// RedisOpt converts a redis:// URL into an asynq connection option.
func RedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opt, nil
}

// NewServer builds an asynq server that logs through zerolog.
func NewServer(cfg ServerConfig) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	logger := cfg.Logger
	return asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{DefaultQueue: 1},
		Logger:          zerologAdapter{logger: logger},
		LogLevel:        asynq.InfoLevel,
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			event := logger.Warn()
			if IsSkipRetry(err) {
				event = logger.Error()
			}
			event.Err(err).Str("task", task.Type()).Msg("task_failed")
		}),
	})
}

// NewScheduler registers a periodic catalog refresh on the cron spec.
func NewScheduler(redis asynq.RedisConnOpt, spec string, logger zerolog.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{
		Logger:   zerologAdapter{logger: logger},
		LogLevel: asynq.InfoLevel,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("schedule_enqueue")
				return
			}
			logger.Debug().Str("task_id", info.ID).Str("task", info.Type).Msg("scheduled")
		},
	})
	task, err := NewCatalogWarmTask("schedule", time.Now())
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(spec, task); err != nil {
		return nil, fmt.Errorf("register %s on %q: %w", TypeCatalogWarm, spec, err)
	}
	return scheduler, nil
}

// zerologAdapter satisfies asynq.Logger.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debug(args ...any) { a.logger.Debug().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Info(args ...any)  { a.logger.Info().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Warn(args ...any)  { a.logger.Warn().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Error(args ...any) { a.logger.Error().Msg(fmt.Sprint(args...)) }
func (a zerologAdapter) Fatal(args ...any) { a.logger.Fatal().Msg(fmt.Sprint(args...)) }
