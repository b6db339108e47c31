package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Options describes where images land and how they are addressed.
type S3Options struct {
	Bucket    string
	Region    string
	KeyPrefix string
	// Endpoint is set for S3 compatible services; objects are then addressed path-style.
	Endpoint string
	// PublicBaseURL overrides the derived object URL, e.g. a CDN in front of the bucket.
	PublicBaseURL string
}

// S3Store uploads post images to Amazon S3 (or compatible APIs).
type S3Store struct {
	uploader *manager.Uploader
	opts     S3Options
}

func NewS3Store(client *s3.Client, opts S3Options) *S3Store {
	return &S3Store{
		uploader: manager.NewUploader(client),
		opts:     opts,
	}
}

func (s *S3Store) Put(ctx context.Context, img Image) (string, error) {
	if s.opts.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	if img.Key == "" {
		return "", fmt.Errorf("object key is required")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(img.Key),
		Body:          img.Body,
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(img.Size),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", img.Key, err)
	}
	return s.ObjectURL(img.Key), nil
}

// ObjectURL returns the address clients use to fetch key.
func (s *S3Store) ObjectURL(key string) string {
	escaped := escapeKey(key)
	if base := strings.TrimRight(s.opts.PublicBaseURL, "/"); base != "" {
		return base + "/" + escaped
	}
	if endpoint := strings.TrimRight(s.opts.Endpoint, "/"); endpoint != "" {
		return endpoint + "/" + s.opts.Bucket + "/" + escaped
	}
	region := s.opts.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, region, escaped)
}

var _ ImageStore = (*S3Store)(nil)

// ImageKey builds the object key for an image uploaded by userID. The
// extension comes from the content type, falling back to the original filename.
func ImageKey(prefix string, userID int64, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 && !contains(exts, ext) {
		ext = exts[0]
	}

	name := uuid.NewString() + ext
	parts := []string{strconv.FormatInt(userID, 10), name}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append([]string{p}, parts...)
	}
	return strings.Join(parts, "/")
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i := range segments {
		segments[i] = url.PathEscape(segments[i])
	}
	return strings.Join(segments, "/")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
