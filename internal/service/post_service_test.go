package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/domain"
)

func TestPostService_GetPost_RawIdentifiers(t *testing.T) {
	repo := &mockPostRepo{
		getFunc: func(ctx context.Context, id int64) (*domain.Post, error) {
			if id == 5 {
				return &domain.Post{ID: 5, Title: "five"}, nil
			}
			return nil, nil
		},
	}
	svc := NewPostService(repo)
	ctx := context.Background()

	post, err := svc.GetPost(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "five", post.Title)

	for _, raw := range []string{"abc", "", "-1", "0", "1.5", "99999999999999999999"} {
		_, err := svc.GetPost(ctx, raw)
		assert.ErrorIs(t, err, ErrPostNotFound, "raw id %q", raw)
	}
}

func TestPostService_GetPost_Missing(t *testing.T) {
	svc := NewPostService(&mockPostRepo{})

	_, err := svc.GetPost(context.Background(), "12")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_CreatePost_UsesAuthor(t *testing.T) {
	var saved *domain.Post
	repo := &mockPostRepo{
		createFunc: func(ctx context.Context, post *domain.Post) (int64, error) {
			saved = post
			post.ID = 9
			return 9, nil
		},
	}
	svc := NewPostService(repo)

	post, err := svc.CreatePost(context.Background(), &domain.User{ID: 4, Username: "alice"}, "title", "caption", "https://img/x.png")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, int64(9), post.ID)
	assert.Equal(t, int64(4), saved.AuthorID)
	assert.Equal(t, "alice", saved.AuthorName)
	assert.Equal(t, "https://img/x.png", saved.ImageReference)
	assert.False(t, saved.CreatedAt.IsZero())

	_, err = svc.CreatePost(context.Background(), nil, "t", "c", "u")
	assert.Error(t, err)
}
