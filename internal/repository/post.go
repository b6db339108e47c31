package repository

import (
	"context"

	"postboard/internal/domain"
)

// PostRepository exposes persistence operations for posts.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]domain.Post, error)
}
