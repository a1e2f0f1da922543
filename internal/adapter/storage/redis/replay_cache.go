package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReplayCache implements ports.ReplayCache. It remembers the journal entry a
// webhook reference was reconciled into so redeliveries skip the database.
type ReplayCache struct {
	client *goredis.Client
}

// NewReplayCache creates a Redis-backed replay cache.
func NewReplayCache(client *goredis.Client) *ReplayCache {
	return &ReplayCache{client: client}
}

// Get returns the cached value for ref, or nil on a miss.
func (c *ReplayCache) Get(ctx context.Context, ref string) ([]byte, error) {
	val, err := c.client.Get(ctx, prefixReplay+ref).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis replay get: %w", err)
	}
	return val, nil
}

// Set stores value for ref with ttl.
func (c *ReplayCache) Set(ctx context.Context, ref string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, prefixReplay+ref, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis replay set: %w", err)
	}
	return nil
}
