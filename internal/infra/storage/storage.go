// Package storage implements the object store adapter from spec.md
// section 4.1: a thin key/value interface over a bucket, backed in
// production by S3-compatible object storage and, for local development
// and tests, by a filesystem-backed implementation of the same interface.
package storage

import (
	"context"
	"io"
	"time"
)

// Store is the object store adapter. Keys are opaque strings; callers
// compose them as "users/<user_id>/photos/<uuid>.<ext>" and
// "users/<user_id>/thumbnails/<uuid>.webp".
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
