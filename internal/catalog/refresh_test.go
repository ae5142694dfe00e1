package catalog_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/catalog"
)

func TestWatchRefreshReloadsHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var items atomic.Int32
	items.Store(1)
	upstream := catalog.ProviderFunc(func(ctx context.Context) ([]catalog.ProductRecord, error) {
		out := make([]catalog.ProductRecord, 0, items.Load())
		for i := int32(0); i < items.Load(); i++ {
			out = append(out, rec("Clay", "Bag"))
		}
		return out, nil
	})
	provider := catalog.CachedProvider{Cache: catalog.NewCache(client, time.Hour), Upstream: upstream}
	holder := catalog.NewHolder(catalog.HolderConfig{Provider: provider, Source: "http"})
	require.NoError(t, holder.Load(context.Background()))
	require.Len(t, holder.Records(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- catalog.WatchRefresh(ctx, client, holder) }()

	// the holder keeps serving the cached snapshot until a refresh lands
	items.Store(3)
	require.Len(t, holder.Records(), 1)

	require.Eventually(t, func() bool {
		if _, err := provider.Refresh(context.Background()); err != nil {
			return false
		}
		return len(holder.Records()) == 3
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
