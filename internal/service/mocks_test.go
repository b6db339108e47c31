package service

import (
	"context"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

type mockUserRepo struct {
	createFunc        func(ctx context.Context, user *domain.User) (int64, error)
	getByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	getByIDFunc       func(ctx context.Context, id int64) (*domain.User, error)
}

func (m *mockUserRepo) Init(ctx context.Context) error { return nil }

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = 1
	return 1, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

type mockPostRepo struct {
	createFunc func(ctx context.Context, post *domain.Post) (int64, error)
	getFunc    func(ctx context.Context, id int64) (*domain.Post, error)
	listFunc   func(ctx context.Context) ([]domain.Post, error)
}

func (m *mockPostRepo) Init(ctx context.Context) error { return nil }

func (m *mockPostRepo) Create(ctx context.Context, post *domain.Post) (int64, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, post)
	}
	post.ID = 1
	return 1, nil
}

func (m *mockPostRepo) Get(ctx context.Context, id int64) (*domain.Post, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockPostRepo) List(ctx context.Context) ([]domain.Post, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []domain.Post{}, nil
}
