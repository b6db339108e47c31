package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured reports that uploads were requested but no image store is wired.
var ErrNotConfigured = errors.New("image storage not configured")

// Image is an uploaded object ready to be stored.
type Image struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists post images and returns the URL clients should reference.
type ImageStore interface {
	Put(ctx context.Context, img Image) (string, error)
}
