package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultTTL bounds how long a crashed holder can keep a key locked.
const DefaultTTL = 30 * time.Second

const defaultRetry = 50 * time.Millisecond

// ErrNotAcquired is returned when the context ends before the lock is free.
var ErrNotAcquired = errors.New("lock: not acquired")

var (
	errNoClient   = errors.New("lock: redis client not configured")
	errNoCallback = errors.New("lock: callback not provided")
)

// unlock deletes the key only while it still holds our token, so a holder
// whose ttl expired cannot release a lock someone else has since taken.
var unlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker serialises callers per key across processes using SET NX PX.
type Locker struct {
	R            redis.Cmdable
	RetryBackoff time.Duration
}

// WithLock runs fn while holding key. The lock is released when fn returns,
// whatever its result. If the context ends first the error wraps both
// ErrNotAcquired and the context error.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errNoClient
	}
	if fn == nil {
		return errNoCallback
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = defaultRetry
	}

	token := uuid.NewString()
	if err := l.acquire(ctx, key, token, ttl, retry); err != nil {
		return err
	}
	defer l.release(ctx, key, token)
	return fn(ctx)
}

func (l Locker) acquire(ctx context.Context, key, token string, ttl, retry time.Duration) error {
	ticker := time.NewTicker(retry)
	defer ticker.Stop()
	for attempt := 1; ; attempt++ {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		switch {
		case err != nil && ctx.Err() == nil:
			return fmt.Errorf("acquire %s: %w", key, err)
		case ok:
			if attempt > 1 {
				zerolog.Ctx(ctx).Debug().Str("key", key).Int("attempts", attempt).Msg("lock_acquired")
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w %s after %d attempts: %w", ErrNotAcquired, key, attempt, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l Locker) release(ctx context.Context, key, token string) {
	// the caller's context may already be cancelled
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := unlock.Run(releaseCtx, l.R, []string{key}, token).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("lock_release")
	}
}
