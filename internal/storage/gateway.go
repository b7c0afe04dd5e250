package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnsupportedType is returned for uploads outside the image allow-list.
	ErrUnsupportedType = errors.New("invalid file type: only JPEG, PNG, GIF, and WebP images are allowed")
	// ErrFileTooLarge is returned for uploads above the size ceiling.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
)

// Options tunes the gateway. Zero fields fall back to DefaultOptions.
type Options struct {
	MaxFileSize int64
	URLTTL      time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	BatchSize   int
}

// DefaultOptions returns the production limits: 5 MiB uploads, 1 hour URLs,
// 3 delete attempts starting at 500ms backoff, batches of 20.
func DefaultOptions() Options {
	return Options{
		MaxFileSize: 5 << 20,
		URLTTL:      time.Hour,
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		BatchSize:   20,
	}
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DeleteResult aggregates a batch delete. DeletedKeys and FailedKeys partition the input.
type DeleteResult struct {
	Success     bool     `json:"success"`
	DeletedKeys []string `json:"deletedKeys"`
	FailedKeys  []string `json:"failedKeys"`
}

// Gateway wraps an ObjectStore with upload validation, signed URLs and
// retrying deletes.
type Gateway struct {
	store ObjectStore
	log   *zap.Logger
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewGateway creates a Gateway over store.
func NewGateway(store ObjectStore, log *zap.Logger, opts Options) *Gateway {
	def := DefaultOptions()
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = def.MaxFileSize
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = def.URLTTL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.BaseDelay < 0 {
		opts.BaseDelay = def.BaseDelay
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{store: store, log: log, opts: opts, sleep: sleepContext, now: time.Now}
}

// MaxFileSize returns the upload size ceiling in bytes.
func (g *Gateway) MaxFileSize() int64 {
	return g.opts.MaxFileSize
}

// Upload validates and stores an image under folder, returning the generated key.
func (g *Gateway) Upload(ctx context.Context, data []byte, originalName, mimeType, folder string) (string, error) {
	if !allowedMimeTypes[strings.ToLower(mimeType)] {
		return "", ErrUnsupportedType
	}
	if int64(len(data)) > g.opts.MaxFileSize {
		return "", ErrFileTooLarge
	}

	key := g.newKey(originalName, folder)
	if err := g.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		g.log.Error("upload to object storage failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("upload image: %w", err)
	}
	return key, nil
}

// SignedURL returns a time-limited read URL for key.
func (g *Gateway) SignedURL(ctx context.Context, key string) (string, error) {
	u, err := g.store.PresignGet(ctx, key, g.opts.URLTTL)
	if err != nil {
		return "", fmt.Errorf("sign url: %w", err)
	}
	return u, nil
}

// DeleteOne removes key, retrying network, timeout and 5xx failures with
// exponential backoff. A missing key counts as deleted.
func (g *Gateway) DeleteOne(ctx context.Context, key string) bool {
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		err := g.store.Remove(ctx, key)
		if err == nil {
			return true
		}
		if isNotFound(err) {
			g.log.Warn("object already absent, treating as deleted", zap.String("key", key))
			return true
		}

		retryable := isRetryable(err)
		g.log.Warn("delete from object storage failed",
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.opts.MaxAttempts),
			zap.Bool("retryable", retryable),
			zap.Error(err),
		)
		if !retryable || attempt == g.opts.MaxAttempts {
			return false
		}

		delay := g.opts.BaseDelay * time.Duration(1<<attempt)
		if err := g.sleep(ctx, delay); err != nil {
			return false
		}
	}
	return false
}

// DeleteMany deletes keys in sequential batches, deleting the members of each
// batch concurrently.
func (g *Gateway) DeleteMany(ctx context.Context, keys []string) DeleteResult {
	result := DeleteResult{Success: true, DeletedKeys: []string{}, FailedKeys: []string{}}
	if len(keys) == 0 {
		return result
	}

	for start := 0; start < len(keys); start += g.opts.BatchSize {
		end := min(start+g.opts.BatchSize, len(keys))
		batch := keys[start:end]
		ok := make([]bool, len(batch))

		var eg errgroup.Group
		for i, key := range batch {
			eg.Go(func() error {
				ok[i] = g.DeleteOne(ctx, key)
				return nil
			})
		}
		_ = eg.Wait()

		for i, key := range batch {
			if ok[i] {
				result.DeletedKeys = append(result.DeletedKeys, key)
			} else {
				result.FailedKeys = append(result.FailedKeys, key)
			}
		}
	}

	if len(result.FailedKeys) > 0 {
		result.Success = false
		g.log.Warn("partial object deletion",
			zap.Int("deleted", len(result.DeletedKeys)),
			zap.Int("failed", len(result.FailedKeys)),
		)
	}
	return result
}

// newKey builds "<folder>/<unixMillis>-<random>.<ext>".
func (g *Gateway) newKey(originalName, folder string) string {
	name := fmt.Sprintf("%d-%09d", g.now().UnixMilli(), rand.IntN(1_000_000_000))
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), ".")); ext != "" {
		name += "." + ext
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func isNotFound(err error) bool {
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
