package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// DepositIntentStore implements ports.DepositIntentStore with JSON values.
type DepositIntentStore struct {
	client *goredis.Client
}

// NewDepositIntentStore creates a Redis-backed deposit intent store.
func NewDepositIntentStore(client *goredis.Client) *DepositIntentStore {
	return &DepositIntentStore{client: client}
}

// Save stores intent under its external reference. A zero ttl keeps it forever.
func (s *DepositIntentStore) Save(ctx context.Context, intent *domain.DepositIntent, ttl time.Duration) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal deposit intent: %w", err)
	}
	if err := s.client.Set(ctx, prefixIntent+intent.ExternalRef, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis intent set: %w", err)
	}
	return nil
}

// Get returns the intent for ref, or nil when absent or expired.
func (s *DepositIntentStore) Get(ctx context.Context, ref string) (*domain.DepositIntent, error) {
	payload, err := s.client.Get(ctx, prefixIntent+ref).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis intent get: %w", err)
	}

	var intent domain.DepositIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, fmt.Errorf("unmarshal deposit intent %s: %w", ref, err)
	}
	return &intent, nil
}

// Delete removes the intent for ref. Missing keys are not an error.
func (s *DepositIntentStore) Delete(ctx context.Context, ref string) error {
	if err := s.client.Del(ctx, prefixIntent+ref).Err(); err != nil {
		return fmt.Errorf("redis intent delete: %w", err)
	}
	return nil
}
