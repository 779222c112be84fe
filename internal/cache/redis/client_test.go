package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-india/backend/internal/cache"
	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/internal/intent"
)

func setupStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, ttl), mr
}

func lawBundle() evidence.Bundle {
	return evidence.Merge([]evidence.Item{
		{Source: "India Code", Data: "Legal acts, sections, and amendments related to: RTI", URL: "https://indiacode.nic.in"},
		{Source: "PRS Legislative Research", Data: "Legislative analysis and bill information for: RTI", URL: "https://prsindia.org"},
	})
}

var _ cache.Store = (*Store)(nil)

func TestStoreRoundTrip(t *testing.T) {
	store, mr := setupStore(t, 30*time.Minute)
	ctx := context.Background()
	key := cache.Key{Intent: intent.Law, Query: "RTI"}

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)

	store.Set(ctx, key, lawBundle())

	got, ok := store.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, lawBundle(), got)

	assert.True(t, mr.Exists(redisKey(key)))
	assert.Equal(t, 30*time.Minute, mr.TTL(redisKey(key)))
}

func TestStoreFallbackRoundTrip(t *testing.T) {
	store, _ := setupStore(t, time.Minute)
	ctx := context.Background()
	key := cache.Key{Intent: intent.FactCheck, Query: "claim"}

	store.Set(ctx, key, evidence.Fallback())

	got, ok := store.Get(ctx, key)
	require.True(t, ok)
	assert.True(t, got.IsFallback())
	assert.NotNil(t, got.URLs)
	assert.NotNil(t, got.Sources)
}

func TestStoreExpiry(t *testing.T) {
	store, mr := setupStore(t, time.Minute)
	ctx := context.Background()
	key := cache.Key{Intent: intent.General, Query: "PM-KISAN"}

	store.Set(ctx, key, lawBundle())
	mr.FastForward(time.Minute)

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)
}

func TestStoreKeysDoNotCollide(t *testing.T) {
	store, _ := setupStore(t, time.Minute)
	ctx := context.Background()

	store.Set(ctx, cache.Key{Intent: intent.Law, Query: "foo:bar"}, lawBundle())

	_, ok := store.Get(ctx, cache.Key{Intent: intent.Intent("law:foo"), Query: "bar"})
	assert.False(t, ok)
	_, ok = store.Get(ctx, cache.Key{Intent: intent.Law, Query: "foo:bar "})
	assert.False(t, ok)
}

func TestStoreBackendFailureIsAMiss(t *testing.T) {
	store, mr := setupStore(t, time.Minute)
	ctx := context.Background()
	key := cache.Key{Intent: intent.Law, Query: "RTI"}

	store.Set(ctx, key, lawBundle())
	mr.Close()

	assert.NotPanics(t, func() {
		_, ok := store.Get(ctx, key)
		assert.False(t, ok)
		store.Set(ctx, key, lawBundle())
	})
}

func TestStoreIgnoresCorruptEntries(t *testing.T) {
	store, mr := setupStore(t, time.Minute)
	key := cache.Key{Intent: intent.Law, Query: "RTI"}

	require.NoError(t, mr.Set(redisKey(key), "{not json"))

	_, ok := store.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestStoreClear(t *testing.T) {
	store, mr := setupStore(t, time.Minute)
	ctx := context.Background()

	store.Set(ctx, cache.Key{Intent: intent.Law, Query: "a"}, lawBundle())
	store.Set(ctx, cache.Key{Intent: intent.General, Query: "b"}, lawBundle())
	require.NoError(t, mr.Set("ratelimit:client", "3"))

	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, []string{"ratelimit:client"}, mr.Keys())
}
