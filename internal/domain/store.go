package domain

import "context"

// UserStore persists user accounts created at login time.
type UserStore interface {
	// Upsert inserts the user or, when the id already exists, leaves the
	// original record (and its CreatedAt) in place.
	Upsert(ctx context.Context, u User) (User, error)

	// Get returns the user with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (User, error)
}
