package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayCache_SetAndGet(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewReplayCache(client)
	ctx := context.Background()

	ref := "dep_1700000000"
	value := []byte(`{"id":"abc","status":"SUCCESSFUL"}`)

	got, err := cache.Get(ctx, ref)
	assert.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Set(ctx, ref, value, 24*time.Hour))

	got, err = cache.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, value, got)
	assert.True(t, s.Exists(prefixReplay+ref))
}

func TestReplayCache_TTLExpiry(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewReplayCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "dep_1", []byte("x"), time.Second))
	s.FastForward(2 * time.Second)

	got, err := cache.Get(ctx, "dep_1")
	assert.NoError(t, err)
	assert.Nil(t, got, "expired key should read as a miss")
}

func TestReplayCache_ConnectionError(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewReplayCache(client)
	s.Close()

	_, err := cache.Get(context.Background(), "dep_1")
	assert.ErrorContains(t, err, "redis replay get")
}
