package shoppinglist_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/pricing"
	"github.com/noah-isme/pricelist/internal/shoppinglist"
)

func sampleList() shoppinglist.List {
	var list shoppinglist.List
	list.ID = "8f5cbb2c-3b65-4a39-9d7d-5a8a3c1b2e01"
	list.AddLine("Bag", "10kg", 3, pricing.Table(records()))
	return list
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := shoppinglist.NewMemoryStore(time.Hour)
	list := sampleList()
	require.NoError(t, store.Save(ctx, list))

	got, err := store.Get(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, list.Lines, got.Lines)

	got.Lines[0].Quantity = 99
	again, err := store.Get(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, 3, again.Lines[0].Quantity)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := shoppinglist.NewMemoryStore(time.Minute)
	store.Now = func() time.Time { return now }
	list := sampleList()
	require.NoError(t, store.Save(ctx, list))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, list.ID)
	require.ErrorIs(t, err, shoppinglist.ErrNotFound)
}

func TestMemoryStoreSweepsUnreadListsOnSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := shoppinglist.NewMemoryStore(time.Minute)
	store.Now = func() time.Time { return now }

	abandoned := sampleList()
	require.NoError(t, store.Save(ctx, abandoned))
	require.Equal(t, 1, store.Len())

	now = now.Add(2 * time.Minute)
	fresh := shoppinglist.List{ID: "0b7d4f0e-8a52-4f6c-9b3e-2d1c5e7a9f10"}
	require.NoError(t, store.Save(ctx, fresh))
	require.Equal(t, 1, store.Len())

	_, err := store.Get(ctx, fresh.ID)
	require.NoError(t, err)
}

func TestMemoryStoreRequiresID(t *testing.T) {
	err := shoppinglist.NewMemoryStore(0).Save(context.Background(), shoppinglist.List{})
	require.ErrorIs(t, err, shoppinglist.ErrInvalidInput)
}

func TestRedisStoreRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := shoppinglist.RedisStore{R: client, TTL: time.Hour}
	list := sampleList()
	require.NoError(t, store.Save(ctx, list))
	require.True(t, mr.Exists(shoppinglist.KeyPrefix+list.ID))
	require.Equal(t, time.Hour, mr.TTL(shoppinglist.KeyPrefix+list.ID))

	got, err := store.Get(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	requireDecimal(t, "77.97", got.Lines[0].Price)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, list.ID)
	require.ErrorIs(t, err, shoppinglist.ErrNotFound)
}
