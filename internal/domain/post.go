package domain

import "time"

// Post is an image post published by a user.
type Post struct {
	ID             int64
	Title          string
	ImageReference string
	Caption        string
	AuthorID       int64
	// AuthorName is filled on reads from the owning user record.
	AuthorName string
	CreatedAt  time.Time
}
