package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newRepos(t *testing.T) (repository.UserRepository, repository.PostRepository) {
	t.Helper()
	db := openTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, posts.Init(ctx))
	return users, posts
}

func createUser(t *testing.T, users repository.UserRepository, username, email string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Email: email, PasswordHash: "hash"}
	_, err := users.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	users, _ := newRepos(t)
	ctx := context.Background()

	created := createUser(t, users, "alice", "alice@example.com")
	assert.Positive(t, created.ID)

	byName, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "alice@example.com", byName.Email)
	assert.Equal(t, "hash", byName.PasswordHash)
	assert.WithinDuration(t, created.CreatedAt, byName.CreatedAt, time.Second)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserRepository_GetMissing(t *testing.T) {
	users, _ := newRepos(t)

	_, err := users.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = users.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UniqueUsernameCheckedFirst(t *testing.T) {
	users, _ := newRepos(t)
	createUser(t, users, "alice", "alice@example.com")

	_, err := users.Create(context.Background(), &domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	_, err = users.Create(context.Background(), &domain.User{Username: "bob", Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestUserRepository_ConcurrentCreateKeepsOneRecord(t *testing.T) {
	users, _ := newRepos(t)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		taken   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Create(context.Background(), &domain.User{
				Username:     "alice",
				Email:        "alice@example.com",
				PasswordHash: "x",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else if assert.ErrorIs(t, err, repository.ErrUsernameTaken) {
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, attempts-1, taken)
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewUserRepository(db).Init(context.Background()))

	insert := func(username, email string) error {
		_, err := db.Exec(`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, 'h', ?)`,
			username, email, time.Now().UTC())
		return err
	}
	require.NoError(t, insert("alice", "alice@example.com"))

	err := insert("alice", "other@example.com")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err, "users.username"))
	assert.False(t, isUniqueViolation(err, "users.email"))

	err = insert("bob", "alice@example.com")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err, "users.email"))
	assert.False(t, isUniqueViolation(err, "users.username"))

	_, err = db.Exec(`INSERT INTO users (username) VALUES (NULL)`)
	require.Error(t, err)
	assert.False(t, isUniqueViolation(err, "users.username"), "NOT NULL failures are not conflicts")
	assert.False(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.username"), "users.username"))
}

func TestPostRepository_ListNewestFirst(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := createUser(t, users, "alice", "alice@example.com")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		_, err := posts.Create(ctx, &domain.Post{
			Title:          title,
			ImageReference: "https://img.example.com/" + title + ".png",
			Caption:        "caption " + title,
			AuthorID:       author.ID,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
	assert.Equal(t, "first", list[2].Title)
	for _, p := range list {
		assert.Equal(t, "alice", p.AuthorName)
	}
}

func TestPostRepository_ListEmpty(t *testing.T) {
	_, posts := newRepos(t)

	list, err := posts.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPostRepository_Get(t *testing.T) {
	users, posts := newRepos(t)
	ctx := context.Background()
	author := createUser(t, users, "alice", "alice@example.com")

	post := &domain.Post{Title: "t", ImageReference: "https://x/y.png", Caption: "c", AuthorID: author.ID}
	id, err := posts.Create(ctx, post)
	require.NoError(t, err)

	got, err := posts.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "https://x/y.png", got.ImageReference)
	assert.Equal(t, "c", got.Caption)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Equal(t, "alice", got.AuthorName)

	_, err = posts.Get(ctx, id+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostRepository_RejectsUnknownAuthor(t *testing.T) {
	_, posts := newRepos(t)

	_, err := posts.Create(context.Background(), &domain.Post{Title: "t", ImageReference: "u", Caption: "c", AuthorID: 999})
	assert.Error(t, err)

	list, err := posts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
