package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT users_username_key UNIQUE (username),
	CONSTRAINT users_email_key UNIQUE (email)
);
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// Create runs the uniqueness checks and the insert in one transaction. Two
// racing transactions can both pass the checks; the unique constraints then
// reject the loser and the violation is mapped to the same domain errors.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var taken bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, user.Username).Scan(&taken); err != nil {
		return 0, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return 0, repository.ErrUsernameTaken
	}
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, user.Email).Scan(&taken); err != nil {
		return 0, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return 0, repository.ErrEmailTaken
	}

	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO users (username, email, password_hash, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		if constraint, ok := violatedConstraint(err); ok {
			if constraint == "users_email_key" {
				return 0, repository.ErrEmailTaken
			}
			return 0, repository.ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if constraint, ok := violatedConstraint(err); ok && constraint == "users_email_key" {
			return 0, repository.ErrEmailTaken
		} else if ok {
			return 0, repository.ErrUsernameTaken
		}
		return 0, fmt.Errorf("commit user insert: %w", err)
	}

	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, username, email, password_hash, created_at
FROM users
WHERE username = $1`, username)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, username, email, password_hash, created_at
FROM users
WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
