// Package domain defines the shared types, interfaces, and sentinel errors
// used across the stock broker dashboard backend.
package domain

import "time"

// User is one logged-in account. The ID is derived deterministically from the
// email address, so logging in twice with the same email yields the same user.
type User struct {
	ID        string    `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserMeta is the slice of user identity attached to a live connection. It is
// carried for display and logging only; subscription semantics key off the
// connection id, never the user.
type UserMeta struct {
	UserID string
	Email  string
}
