package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateConnection = errors.New("connection id already registered")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidEmail        = errors.New("valid email is required")
)
