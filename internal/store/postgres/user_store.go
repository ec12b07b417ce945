package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore backed by the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Upsert inserts the user or returns the existing record when the id is
// already present; a repeat login keeps the original CreatedAt.
func (s *UserStore) Upsert(ctx context.Context, u domain.User) (domain.User, error) {
	const query = `
		INSERT INTO users (user_id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email
		RETURNING user_id, email, created_at`

	var out domain.User
	err := s.pool.QueryRow(ctx, query, u.ID, u.Email, u.CreatedAt).
		Scan(&out.ID, &out.Email, &out.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("postgres: upsert user %s: %w", u.ID, err)
	}
	return out, nil
}

// Get returns the user with the given id, or domain.ErrNotFound.
func (s *UserStore) Get(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT user_id, email, created_at FROM users WHERE user_id = $1`

	var out domain.User
	err := s.pool.QueryRow(ctx, query, id).Scan(&out.ID, &out.Email, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("postgres: get user %s: %w", id, err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.UserStore = (*UserStore)(nil)
