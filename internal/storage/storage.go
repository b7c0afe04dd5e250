// Package storage defines the object storage abstraction and the image gateway
// built on top of it. The MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by an ObjectStore when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the minimal put/presign/delete API the gateway needs.
type ObjectStore interface {
	// Put streams data to the store under the given key.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// PresignGet returns a time-limited read URL for key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Remove deletes the object identified by key.
	Remove(ctx context.Context, key string) error
}
