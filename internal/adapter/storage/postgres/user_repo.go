package postgres

import (
	"context"
	"errors"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements ports.UserDirectory over the identity provider's users table.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, email, name, home_currency FROM users WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id), "get user by id")
}

// GetByEmail matches case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, home_currency FROM users WHERE lower(email) = lower($1)`
	return r.scan(r.pool.QueryRow(ctx, query, email), "get user by email")
}

func (r *UserRepo) scan(row pgx.Row, op string) (*domain.User, error) {
	u := &domain.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.HomeCurrency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return u, nil
}
