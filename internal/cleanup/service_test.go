package cleanup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/storage"
)

// memStore mirrors the repository's claim semantics in memory. Writes fail on a
// cancelled context the way pgx does.
type memStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
	seq   int
	clock time.Time
}

func newMemStore() *memStore {
	return &memStore{tasks: map[string]*Task{}, clock: time.Unix(1700000000, 0)}
}

func (m *memStore) Create(ctx context.Context, resourceType, resourceID string, fileKeys []string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.clock = m.clock.Add(time.Second)
	t := &Task{
		ID:           fmt.Sprintf("task-%d", m.seq),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		FileKeys:     append([]string(nil), fileKeys...),
		Status:       StatusPending,
		CreatedAt:    m.clock,
		UpdatedAt:    m.clock,
	}
	m.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (m *memStore) Claim(ctx context.Context, limit int) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*Task
	stale := m.clock.Add(-ClaimLease)
	for _, t := range m.tasks {
		expired := t.Status == StatusInProgress && t.LastAttempt != nil && t.LastAttempt.Before(stale)
		if t.Status == StatusPending || expired {
			pending = append(pending, t)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Attempts != pending[j].Attempts {
			return pending[i].Attempts < pending[j].Attempts
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	out := make([]Task, 0, len(pending))
	now := m.clock
	for _, t := range pending {
		t.Status = StatusInProgress
		t.Attempts++
		t.LastAttempt = &now
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) Finish(ctx context.Context, id string, status Status, remaining []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	t.FileKeys = append([]string(nil), remaining...)
	return nil
}

func (m *memStore) Release(ctx context.Context, id string, remaining []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = StatusPending
	t.FileKeys = append([]string(nil), remaining...)
	if t.Attempts > 0 {
		t.Attempts--
	}
	return nil
}

func (m *memStore) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(d)
}

func (m *memStore) GetByID(ctx context.Context, id string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) List(ctx context.Context, status Status, limit int) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s Stats
	for _, t := range m.tasks {
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		}
		s.Total++
	}
	return s, nil
}

func (m *memStore) get(id string) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.tasks[id]
}

// fakeDeleter fails every key in failing and records what it was asked to delete.
type fakeDeleter struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   [][]string
}

func (d *fakeDeleter) DeleteMany(ctx context.Context, keys []string) storage.DeleteResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, append([]string(nil), keys...))
	res := storage.DeleteResult{Success: true, DeletedKeys: []string{}, FailedKeys: []string{}}
	for _, k := range keys {
		if d.failing[k] {
			res.FailedKeys = append(res.FailedKeys, k)
		} else {
			res.DeletedKeys = append(res.DeletedKeys, k)
		}
	}
	res.Success = len(res.FailedKeys) == 0
	return res
}

func (d *fakeDeleter) heal(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.failing, key)
}

// cancellingDeleter cancels the pass while deleting and reports every key failed.
type cancellingDeleter struct {
	cancel context.CancelFunc
}

func (d *cancellingDeleter) DeleteMany(ctx context.Context, keys []string) storage.DeleteResult {
	d.cancel()
	return storage.DeleteResult{DeletedKeys: []string{}, FailedKeys: append([]string(nil), keys...)}
}

func TestEnqueueRequiresKeys(t *testing.T) {
	svc := NewService(newMemStore(), &fakeDeleter{}, nil)

	cases := []struct {
		name         string
		resourceType string
		resourceID   string
		keys         []string
	}{
		{"no keys", "product", "p1", nil},
		{"blank keys", "product", "p1", []string{"", "  "}},
		{"no resource type", "", "p1", []string{"a"}},
		{"no resource id", "product", "", []string{"a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Enqueue(context.Background(), tc.resourceType, tc.resourceID, tc.keys)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestEnqueueCreatesPendingTask(t *testing.T) {
	svc := NewService(newMemStore(), &fakeDeleter{}, nil)
	task, err := svc.Enqueue(context.Background(), "product", "p1", []string{"a.png", "b.png"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if task.Status != StatusPending || task.Attempts != 0 || len(task.FileKeys) != 2 {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestProcessPendingCompletesInOnePass(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &fakeDeleter{failing: map[string]bool{}}, nil)
	task, _ := svc.Enqueue(context.Background(), "product", "p1", []string{"a.png", "b.png"})

	res, err := svc.ProcessPending(context.Background(), 20)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res != (Result{Processed: 1, Succeeded: 1}) {
		t.Fatalf("unexpected result %+v", res)
	}
	got := store.get(task.ID)
	if got.Status != StatusCompleted || got.Attempts != 1 || len(got.FileKeys) != 0 {
		t.Fatalf("unexpected task after pass %+v", got)
	}
	if got.LastAttempt == nil {
		t.Fatalf("expected lastAttempt to be set")
	}
}

func TestProcessPendingKeepsOnlyRemainingKeys(t *testing.T) {
	store := newMemStore()
	deleter := &fakeDeleter{failing: map[string]bool{"b.png": true}}
	svc := NewService(store, deleter, nil)
	task, _ := svc.Enqueue(context.Background(), "product", "p1", []string{"a.png", "b.png"})

	res, err := svc.ProcessPending(context.Background(), 20)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res != (Result{Processed: 1}) {
		t.Fatalf("expected a non-terminal retry to count as neither, got %+v", res)
	}
	got := store.get(task.ID)
	if got.Status != StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}
	if len(got.FileKeys) != 1 || got.FileKeys[0] != "b.png" {
		t.Fatalf("expected only the failed key to remain, got %v", got.FileKeys)
	}

	deleter.heal("b.png")
	if _, err := svc.ProcessPending(context.Background(), 20); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	last := deleter.calls[len(deleter.calls)-1]
	if len(last) != 1 || last[0] != "b.png" {
		t.Fatalf("expected second pass to retry only b.png, got %v", last)
	}
	if got := store.get(task.ID); got.Status != StatusCompleted || got.Attempts != 2 {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestProcessPendingFailsOnFifthAttempt(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &fakeDeleter{failing: map[string]bool{"stuck.png": true}}, nil)
	task, _ := svc.Enqueue(context.Background(), "product", "p1", []string{"stuck.png"})

	prev := 0
	for pass := 1; pass <= MaxAttempts; pass++ {
		res, err := svc.ProcessPending(context.Background(), 20)
		if err != nil {
			t.Fatalf("pass %d failed: %v", pass, err)
		}
		got := store.get(task.ID)
		if got.Attempts <= prev {
			t.Fatalf("pass %d: attempts went from %d to %d", pass, prev, got.Attempts)
		}
		prev = got.Attempts

		if pass < MaxAttempts {
			if got.Status != StatusPending || res.Failed != 0 {
				t.Fatalf("pass %d: expected pending with no failure, got %s %+v", pass, got.Status, res)
			}
			continue
		}
		if got.Status != StatusFailed || res.Failed != 1 {
			t.Fatalf("pass %d: expected failed, got %s %+v", pass, got.Status, res)
		}
	}

	res, err := svc.ProcessPending(context.Background(), 20)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.Processed != 0 {
		t.Fatalf("terminal task was reselected: %+v", res)
	}
	if got := store.get(task.ID); got.Attempts != MaxAttempts {
		t.Fatalf("expected attempts to stay at %d, got %d", MaxAttempts, got.Attempts)
	}
}

func TestProcessPendingHonoursLimitAndOrder(t *testing.T) {
	store := newMemStore()
	deleter := &fakeDeleter{failing: map[string]bool{}}
	svc := NewService(store, deleter, nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.Enqueue(context.Background(), "product", fmt.Sprintf("p%d", i), []string{fmt.Sprintf("k%d", i)}); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	res, err := svc.ProcessPending(context.Background(), 2)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.Processed != 2 {
		t.Fatalf("expected 2 processed, got %+v", res)
	}
	if deleter.calls[0][0] != "k0" || deleter.calls[1][0] != "k1" {
		t.Fatalf("expected oldest tasks first, got %v", deleter.calls)
	}

	stats, _ := svc.Stats(context.Background())
	if stats.Pending != 1 || stats.Completed != 2 || stats.Total != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemStore(), &fakeDeleter{}, nil)
	if _, err := svc.List(context.Background(), Status("bogus"), 0); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetMissingTask(t *testing.T) {
	svc := NewService(newMemStore(), &fakeDeleter{}, nil)
	if _, err := svc.Get(context.Background(), "nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProcessPendingReturnsInterruptedTaskToPending(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewService(store, &cancellingDeleter{cancel: cancel}, nil)
	first, _ := svc.Enqueue(context.Background(), "product", "p1", []string{"a.png", "b.png"})
	second, _ := svc.Enqueue(context.Background(), "product", "p2", []string{"c.png"})

	res, err := svc.ProcessPending(ctx, 20)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.Failed != 0 || res.Succeeded != 0 {
		t.Fatalf("expected an interrupted pass to count nothing as failed, got %+v", res)
	}
	for _, id := range []string{first.ID, second.ID} {
		got := store.get(id)
		if got.Status != StatusPending || got.Attempts != 0 {
			t.Fatalf("task %s: expected pending with no attempt used, got %s/%d", id, got.Status, got.Attempts)
		}
	}
	if got := store.get(first.ID); len(got.FileKeys) != 2 {
		t.Fatalf("expected keys to be kept, got %v", got.FileKeys)
	}

	svc = NewService(store, &fakeDeleter{failing: map[string]bool{}}, nil)
	res, err = svc.ProcessPending(context.Background(), 20)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res != (Result{Processed: 2, Succeeded: 2}) {
		t.Fatalf("expected both tasks to be claimable again, got %+v", res)
	}
	if got := store.get(first.ID); got.Status != StatusCompleted || got.Attempts != 1 {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestProcessPendingReclaimsStaleInProgressTasks(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &fakeDeleter{failing: map[string]bool{}}, nil)
	task, _ := svc.Enqueue(context.Background(), "product", "p1", []string{"a.png"})

	// A pass that died after claiming leaves the task in_progress.
	if _, err := store.Claim(context.Background(), 20); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	res, err := svc.ProcessPending(context.Background(), 20)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.Processed != 0 {
		t.Fatalf("expected a live claim to be left alone, got %+v", res)
	}

	store.advance(ClaimLease + time.Minute)
	res, err = svc.ProcessPending(context.Background(), 20)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res != (Result{Processed: 1, Succeeded: 1}) {
		t.Fatalf("expected the stale task to be reclaimed, got %+v", res)
	}
	if got := store.get(task.ID); got.Status != StatusCompleted || got.Attempts != 2 {
		t.Fatalf("unexpected task %+v", got)
	}
}
