package memory

import (
	"context"
	"strings"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// UserDirectory implements ports.UserDirectory from a fixed set of users.
type UserDirectory struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]domain.User
	email map[string]uuid.UUID
}

// NewUserDirectory creates a directory seeded with users.
func NewUserDirectory(users ...domain.User) *UserDirectory {
	d := &UserDirectory{
		byID:  make(map[uuid.UUID]domain.User),
		email: make(map[string]uuid.UUID),
	}
	for _, u := range users {
		d.Add(u)
	}
	return d
}

// Add registers or replaces u.
func (d *UserDirectory) Add(u domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u.HomeCurrency = domain.NormalizeCurrency(u.HomeCurrency)
	d.byID[u.ID] = u
	d.email[strings.ToLower(u.Email)] = u.ID
}

func (d *UserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (d *UserDirectory) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.email[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	u := d.byID[id]
	return &u, nil
}
