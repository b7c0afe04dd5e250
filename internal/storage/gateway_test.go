package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
)

type fakeStore struct {
	mu       sync.Mutex
	puts     map[string]int64
	removes  map[string]int
	failures map[string][]error // consumed one per Remove call; last entry repeats
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		puts:     map[string]int64{},
		removes:  map[string]int{},
		failures: map[string][]error{},
	}
}

func (s *fakeStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts[key] = size
	return nil
}

func (s *fakeStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes[key]++
	errs := s.failures[key]
	if len(errs) == 0 {
		return nil
	}
	err := errs[0]
	if len(errs) > 1 {
		s.failures[key] = errs[1:]
	}
	return err
}

func (s *fakeStore) removeCalls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removes[key]
}

func (s *fakeStore) totalRemoveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.removes {
		n += c
	}
	return n
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func newTestGateway(store ObjectStore) (*Gateway, *[]time.Duration) {
	g := NewGateway(store, nil, DefaultOptions())
	var delays []time.Duration
	var mu sync.Mutex
	g.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return nil
	}
	return g, &delays
}

func TestUploadRejectsNonImageTypes(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGateway(store)

	for _, mime := range []string{"application/pdf", "text/plain", "image/svg+xml", "video/mp4", ""} {
		_, err := g.Upload(context.Background(), []byte("data"), "file.bin", mime, "products")
		if !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("mime %q: expected ErrUnsupportedType, got %v", mime, err)
		}
	}
	if len(store.puts) != 0 {
		t.Fatalf("expected no writes, got %d", len(store.puts))
	}
}

func TestUploadRejectsOversizedFiles(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGateway(store)

	data := make([]byte, 5<<20+1)
	_, err := g.Upload(context.Background(), data, "big.png", "image/png", "products")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if len(store.puts) != 0 {
		t.Fatalf("expected no writes, got %d", len(store.puts))
	}
}

func TestUploadGeneratesFolderedKey(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGateway(store)
	g.now = func() time.Time { return time.UnixMilli(1700000000000) }

	key, err := g.Upload(context.Background(), []byte("png"), "Photo.PNG", "image/png", "products")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !strings.HasPrefix(key, "products/1700000000000-") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	if store.puts[key] != 3 {
		t.Fatalf("expected 3 bytes stored under %q", key)
	}

	other, err := g.Upload(context.Background(), []byte("png"), "Photo.PNG", "image/png", "products")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if other == key {
		t.Fatalf("expected distinct keys, got %q twice", key)
	}
}

func TestSignedURLUsesOneHourTTL(t *testing.T) {
	g, _ := newTestGateway(newFakeStore())
	u, err := g.SignedURL(context.Background(), "products/a.png")
	if err != nil {
		t.Fatalf("signed url failed: %v", err)
	}
	if !strings.HasSuffix(u, "ttl=3600") {
		t.Fatalf("expected 1h ttl, got %q", u)
	}
}

func TestDeleteOneTreatsNotFoundAsSuccess(t *testing.T) {
	store := newFakeStore()
	store.failures["gone.png"] = []error{minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}}
	store.failures["gone2.png"] = []error{fmt.Errorf("remove: %w", ErrObjectNotFound)}
	g, _ := newTestGateway(store)

	if !g.DeleteOne(context.Background(), "gone.png") {
		t.Fatalf("expected not-found to count as deleted")
	}
	if !g.DeleteOne(context.Background(), "gone2.png") {
		t.Fatalf("expected wrapped ErrObjectNotFound to count as deleted")
	}
	if store.removeCalls("gone.png") != 1 {
		t.Fatalf("expected a single attempt, got %d", store.removeCalls("gone.png"))
	}
}

func TestDeleteOneRetriesRetryableErrors(t *testing.T) {
	store := newFakeStore()
	store.failures["flaky.png"] = []error{minio.ErrorResponse{Code: "InternalError", StatusCode: 503}}
	g, delays := newTestGateway(store)

	if g.DeleteOne(context.Background(), "flaky.png") {
		t.Fatalf("expected failure after exhausting retries")
	}
	if got := store.removeCalls("flaky.png"); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %v", len(want), *delays)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Fatalf("backoff %d: expected %s, got %s", i, d, (*delays)[i])
		}
	}
}

func TestDeleteOneRecoversAfterTransientTimeout(t *testing.T) {
	store := newFakeStore()
	store.failures["slow.png"] = []error{timeoutErr{}, nil}
	g, _ := newTestGateway(store)

	if !g.DeleteOne(context.Background(), "slow.png") {
		t.Fatalf("expected success on second attempt")
	}
	if got := store.removeCalls("slow.png"); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDeleteOneStopsOnNonRetryableError(t *testing.T) {
	store := newFakeStore()
	store.failures["denied.png"] = []error{minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}}
	g, delays := newTestGateway(store)

	if g.DeleteOne(context.Background(), "denied.png") {
		t.Fatalf("expected failure")
	}
	if got := store.removeCalls("denied.png"); got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no backoff, got %v", *delays)
	}
}

func TestDeleteManyEmptyInput(t *testing.T) {
	store := newFakeStore()
	g, _ := newTestGateway(store)

	res := g.DeleteMany(context.Background(), nil)
	if !res.Success || len(res.DeletedKeys) != 0 || len(res.FailedKeys) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.DeletedKeys == nil || res.FailedKeys == nil {
		t.Fatalf("expected empty, non-nil slices")
	}
	if store.totalRemoveCalls() != 0 {
		t.Fatalf("expected store not to be contacted")
	}
}

func TestDeleteManyPartitionsKeys(t *testing.T) {
	store := newFakeStore()
	var keys []string
	for i := 0; i < 45; i++ {
		key := fmt.Sprintf("products/%02d.png", i)
		keys = append(keys, key)
		if i%7 == 0 {
			store.failures[key] = []error{minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}}
		}
	}
	g, _ := newTestGateway(store)

	res := g.DeleteMany(context.Background(), keys)
	if res.Success {
		t.Fatalf("expected partial failure")
	}
	if len(res.DeletedKeys)+len(res.FailedKeys) != len(keys) {
		t.Fatalf("expected %d keys accounted for, got %d+%d", len(keys), len(res.DeletedKeys), len(res.FailedKeys))
	}

	seen := map[string]int{}
	for _, k := range res.DeletedKeys {
		seen[k]++
	}
	for _, k := range res.FailedKeys {
		seen[k]++
		if store.failures[k] == nil {
			t.Fatalf("key %q reported failed but should have succeeded", k)
		}
	}
	for _, k := range keys {
		if seen[k] != 1 {
			t.Fatalf("key %q appears %d times across deleted/failed", k, seen[k])
		}
	}

	failed := append([]string(nil), res.FailedKeys...)
	sort.Strings(failed)
	if len(failed) != 7 {
		t.Fatalf("expected 7 failed keys, got %v", failed)
	}
}

func TestDeleteManyAllSucceed(t *testing.T) {
	g, _ := newTestGateway(newFakeStore())
	res := g.DeleteMany(context.Background(), []string{"a", "b", "c"})
	if !res.Success || len(res.DeletedKeys) != 3 || len(res.FailedKeys) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

// trackingStore records how many Remove calls overlap and how many had
// finished when each key's delete started.
type trackingStore struct {
	*fakeStore
	mu        sync.Mutex
	inFlight  int
	peak      int
	finished  int
	startedAt map[string]int
}

func (s *trackingStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	s.inFlight++
	s.peak = max(s.peak, s.inFlight)
	s.startedAt[key] = s.finished
	s.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	s.finished++
	s.mu.Unlock()
	return nil
}

func TestDeleteManyRunsBatchesSequentially(t *testing.T) {
	store := &trackingStore{fakeStore: newFakeStore(), startedAt: map[string]int{}}
	g, _ := newTestGateway(store)

	var keys []string
	for i := 0; i < 45; i++ {
		keys = append(keys, fmt.Sprintf("products/%02d.png", i))
	}
	res := g.DeleteMany(context.Background(), keys)
	if !res.Success || len(res.DeletedKeys) != 45 {
		t.Fatalf("unexpected result %+v", res)
	}

	if store.peak > 20 {
		t.Fatalf("expected at most 20 concurrent deletes, saw %d", store.peak)
	}
	for i, k := range keys {
		if batchStart := i / 20 * 20; store.startedAt[k] < batchStart {
			t.Fatalf("key %q started with %d deletes finished, want at least %d", k, store.startedAt[k], batchStart)
		}
	}
}
