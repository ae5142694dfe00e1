package catalog

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Subscriber opens pub/sub subscriptions. *redis.Client satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// WatchRefresh reloads holder whenever a refreshed snapshot is announced on
// RefreshChannel. It blocks until ctx ends and only fails if the
// subscription cannot be established.
func WatchRefresh(ctx context.Context, sub Subscriber, holder *Holder) error {
	pubsub := sub.Subscribe(ctx, RefreshChannel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", RefreshChannel, err)
	}

	logger := zerolog.Ctx(ctx)
	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			logger.Debug().Str("records", msg.Payload).Msg("catalog_refresh_announced")
			// failures are logged by Reload and the previous snapshot stays
			_ = holder.Reload(ctx)
		}
	}
}
