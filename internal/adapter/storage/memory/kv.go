package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// kv is a TTL map standing in for Redis when it is disabled.
type kv struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func newKV() *kv {
	return &kv{items: make(map[string]entry), now: time.Now}
}

func (k *kv) get(key string) []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.items[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !k.now().Before(e.expiresAt) {
		delete(k.items, key)
		return nil
	}
	return e.value
}

func (k *kv) set(key string, value []byte, ttl time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = k.now().Add(ttl)
	}
	k.items[key] = e
}

func (k *kv) del(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.items, key)
}

// ReplayCache implements ports.ReplayCache.
type ReplayCache struct {
	kv *kv
}

// NewReplayCache creates an in-process replay cache.
func NewReplayCache() *ReplayCache {
	return &ReplayCache{kv: newKV()}
}

func (c *ReplayCache) Get(ctx context.Context, ref string) ([]byte, error) {
	return c.kv.get(ref), nil
}

func (c *ReplayCache) Set(ctx context.Context, ref string, value []byte, ttl time.Duration) error {
	c.kv.set(ref, value, ttl)
	return nil
}

// DepositIntentStore implements ports.DepositIntentStore.
type DepositIntentStore struct {
	kv *kv
}

// NewDepositIntentStore creates an in-process deposit intent store.
func NewDepositIntentStore() *DepositIntentStore {
	return &DepositIntentStore{kv: newKV()}
}

func (s *DepositIntentStore) Save(ctx context.Context, intent *domain.DepositIntent, ttl time.Duration) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal deposit intent: %w", err)
	}
	s.kv.set(intent.ExternalRef, payload, ttl)
	return nil
}

func (s *DepositIntentStore) Get(ctx context.Context, ref string) (*domain.DepositIntent, error) {
	payload := s.kv.get(ref)
	if payload == nil {
		return nil, nil
	}
	var intent domain.DepositIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, fmt.Errorf("unmarshal deposit intent %s: %w", ref, err)
	}
	return &intent, nil
}

func (s *DepositIntentStore) Delete(ctx context.Context, ref string) error {
	s.kv.del(ref)
	return nil
}
