package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SnapshotKey is the Redis key holding the cached catalog.
const SnapshotKey = "pricelist:catalog:snapshot:v1"

// RefreshChannel announces that a new snapshot has been stored. The payload
// is the record count.
const RefreshChannel = "pricelist:catalog:refreshed"

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL. A
// non-positive TTL stores the key without expiry.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Publish sends msg on channel.
func (c *Cache) Publish(ctx context.Context, channel string, msg any) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Publish(ctx, channel, msg).Err()
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

type cachedSnapshot struct {
	Records   []ProductRecord `json:"records"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// CachedProvider serves the catalog from a Redis snapshot and falls back to
// Upstream on a miss. Cache failures are logged and never fail a fetch.
type CachedProvider struct {
	Cache    *Cache
	Upstream Provider
	Key      string
	Now      func() time.Time
}

// Fetch returns the cached snapshot when present, otherwise refreshes it.
func (p CachedProvider) Fetch(ctx context.Context) ([]ProductRecord, error) {
	var snap cachedSnapshot
	ok, err := p.Cache.GetJSON(ctx, p.key(), &snap)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("catalog_cache_read")
	}
	if ok {
		return snap.Records, nil
	}
	records, _, err := p.refresh(ctx)
	return records, err
}

// Refresh fetches from Upstream, rewrites the snapshot and announces it on
// RefreshChannel so running API processes reload. It returns the number of
// records stored.
func (p CachedProvider) Refresh(ctx context.Context) (int, error) {
	records, stored, err := p.refresh(ctx)
	if err != nil {
		return 0, err
	}
	if !stored {
		return len(records), errors.New("catalog: snapshot not stored")
	}
	if err := p.Cache.Publish(ctx, RefreshChannel, len(records)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("catalog_refresh_publish")
	}
	return len(records), nil
}

func (p CachedProvider) refresh(ctx context.Context) ([]ProductRecord, bool, error) {
	if p.Upstream == nil {
		return nil, false, errors.New("catalog: cached provider has no upstream")
	}
	records, err := p.Upstream.Fetch(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("refresh catalog: %w", err)
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if err := p.Cache.SetJSON(ctx, p.key(), cachedSnapshot{Records: records, FetchedAt: now().UTC()}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("catalog_cache_write")
		return records, false, nil
	}
	return records, true, nil
}

func (p CachedProvider) key() string {
	if p.Key == "" {
		return SnapshotKey
	}
	return p.Key
}
