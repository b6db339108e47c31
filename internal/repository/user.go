package repository

import (
	"context"
	"errors"

	"postboard/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrUsernameTaken is returned when the username is already stored.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when the email is already stored.
	ErrEmailTaken = errors.New("email already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	// Create checks username then email uniqueness and inserts the user in a single transaction.
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
