package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

// ErrPostNotFound is returned when a post identifier matches nothing.
var ErrPostNotFound = errors.New("post not found")

// PostService coordinates post level operations backed by repositories.
type PostService interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	// GetPost accepts the raw identifier from the request path.
	GetPost(ctx context.Context, rawID string) (*domain.Post, error)
	CreatePost(ctx context.Context, author *domain.User, title, caption, imageURL string) (*domain.Post, error)
}

type postService struct {
	posts repository.PostRepository
	now   func() time.Time
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{
		posts: posts,
		now:   time.Now,
	}
}

func (s *postService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

func (s *postService) GetPost(ctx context.Context, rawID string) (*domain.Post, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrPostNotFound
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) CreatePost(ctx context.Context, author *domain.User, title, caption, imageURL string) (*domain.Post, error) {
	if author == nil {
		return nil, errors.New("post author is required")
	}

	post := &domain.Post{
		Title:          title,
		ImageReference: imageURL,
		Caption:        caption,
		AuthorID:       author.ID,
		AuthorName:     author.Username,
		CreatedAt:      s.now().UTC(),
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}
