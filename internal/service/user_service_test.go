package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

func TestUserService_Register_HashesPassword(t *testing.T) {
	var stored *domain.User
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *domain.User) (int64, error) {
			stored = user
			user.ID = 7
			return 7, nil
		},
	}
	svc := NewUserService(repo, bcrypt.MinCost)

	user, err := svc.Register(context.Background(), " alice ", "alice@example.com", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash, "returned user must not carry the hash")
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestUserService_Register_MapsConflicts(t *testing.T) {
	cases := []struct {
		repoErr error
		want    error
	}{
		{repository.ErrUsernameTaken, ErrUsernameTaken},
		{repository.ErrEmailTaken, ErrEmailTaken},
		{fmt.Errorf("wrapped: %w", repository.ErrEmailTaken), ErrEmailTaken},
	}
	for _, tc := range cases {
		repo := &mockUserRepo{
			createFunc: func(ctx context.Context, user *domain.User) (int64, error) {
				return 0, tc.repoErr
			},
		}
		svc := NewUserService(repo, bcrypt.MinCost)

		_, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw")
		assert.ErrorIs(t, err, tc.want)
	}
}

func TestUserService_Register_RejectsOverlongPassword(t *testing.T) {
	called := false
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *domain.User) (int64, error) {
			called = true
			return 0, repository.ErrUsernameTaken
		},
	}
	svc := NewUserService(repo, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.False(t, called, "store must not be touched")

	// multi-byte runes count by bytes
	_, err = svc.Register(context.Background(), "alice", "alice@example.com", strings.Repeat("é", 37))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestUserService_Register_AcceptsMaxLengthPassword(t *testing.T) {
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *domain.User) (int64, error) { return 1, nil },
	}
	svc := NewUserService(repo, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestUserService_Register_PropagatesStoreFault(t *testing.T) {
	boom := errors.New("disk full")
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *domain.User) (int64, error) { return 0, boom },
	}
	svc := NewUserService(repo, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw")
	assert.ErrorIs(t, err, boom)
}

func TestUserService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockUserRepo{
		getByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			if username != "alice" {
				return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
			}
			return &domain.User{ID: 3, Username: "alice", Email: "a@example.com", PasswordHash: string(hash)}, nil
		},
	}
	svc := NewUserService(repo, bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "alice", "correct")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "mallory", "correct")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_GetByID(t *testing.T) {
	repo := &mockUserRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*domain.User, error) {
			if id == 1 {
				return &domain.User{ID: 1, Username: "alice", PasswordHash: "h"}, nil
			}
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		},
	}
	svc := NewUserService(repo, 0)

	user, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.GetByID(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
