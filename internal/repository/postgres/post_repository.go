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

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	image_reference TEXT NOT NULL,
	caption TEXT NOT NULL,
	author_id BIGINT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
`

const selectPosts = `
SELECT p.id, p.title, p.image_reference, p.caption, p.author_id, u.username, p.created_at
FROM posts p
JOIN users u ON u.id = p.author_id`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) repository.PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO posts (title, image_reference, caption, author_id, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		post.Title,
		post.ImageReference,
		post.Caption,
		post.AuthorID,
		post.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return scanPost(r.pool.QueryRow(ctx, selectPosts+`
WHERE p.id = $1`, id))
}

func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, selectPosts+`
ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.ImageReference,
		&post.Caption,
		&post.AuthorID,
		&post.AuthorName,
		&post.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	post.CreatedAt = post.CreatedAt.UTC()
	return &post, nil
}
