package cleanup

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/storage"
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, resourceType, resourceID string, fileKeys []string) (*Task, error)
	Claim(ctx context.Context, limit int) ([]Task, error)
	Finish(ctx context.Context, id string, status Status, remaining []string) error
	Release(ctx context.Context, id string, remaining []string) error
	GetByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, status Status, limit int) ([]Task, error)
	Stats(ctx context.Context) (Stats, error)
}

// Deleter removes object keys in bulk.
type Deleter interface {
	DeleteMany(ctx context.Context, keys []string) storage.DeleteResult
}

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 100

// writeTimeout bounds the outcome write of a task once its pass was cancelled.
const writeTimeout = 10 * time.Second

// Service contains business logic for the cleanup queue.
type Service struct {
	store   Store
	deleter Deleter
	log     *zap.Logger
}

// NewService creates a new cleanup Service.
func NewService(store Store, deleter Deleter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, deleter: deleter, log: log}
}

// Enqueue records keys that could not be deleted for resourceType/resourceID.
func (s *Service) Enqueue(ctx context.Context, resourceType, resourceID string, fileKeys []string) (*Task, error) {
	resourceType = strings.TrimSpace(resourceType)
	resourceID = strings.TrimSpace(resourceID)
	if resourceType == "" || resourceID == "" {
		return nil, apperr.Validation("resource type and resource id are required")
	}

	keys := make([]string, 0, len(fileKeys))
	for _, k := range fileKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, apperr.Validation("at least one file key is required")
	}

	t, err := s.store.Create(ctx, resourceType, resourceID, keys)
	if err != nil {
		return nil, apperr.Internal(err, "failed to create cleanup task")
	}
	s.log.Info("cleanup task created",
		zap.String("task_id", t.ID),
		zap.String("resource_type", resourceType),
		zap.String("resource_id", resourceID),
		zap.Int("keys", len(keys)),
	)
	return t, nil
}

// ProcessPending claims up to limit pending tasks and retries their deletes.
// Succeeded counts tasks that completed, Failed counts tasks that reached the
// attempt ceiling or could not be updated. Tasks with keys left below the
// ceiling go back to pending and count as neither, as do tasks interrupted by
// ctx being cancelled.
func (s *Service) ProcessPending(ctx context.Context, limit int) (Result, error) {
	if limit <= 0 {
		limit = 20
	}

	tasks, err := s.store.Claim(ctx, limit)
	if err != nil {
		return Result{}, apperr.Internal(err, "failed to claim cleanup tasks")
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Attempts != tasks[j].Attempts {
			return tasks[i].Attempts < tasks[j].Attempts
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	var res Result
	for _, t := range tasks {
		if ctx.Err() != nil {
			_ = s.release(ctx, t, t.FileKeys)
			continue
		}
		res.Processed++
		status, err := s.processTask(ctx, t)
		switch {
		case err != nil:
			res.Failed++
			s.log.Error("cleanup task update failed", zap.String("task_id", t.ID), zap.Error(err))
		case status == StatusCompleted:
			res.Succeeded++
		case status == StatusFailed:
			res.Failed++
		}
	}

	if res.Processed > 0 {
		s.log.Info("cleanup pass finished",
			zap.Int("processed", res.Processed),
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", res.Failed),
		)
	}
	return res, nil
}

// processTask assumes t was already claimed, so t.Attempts includes this pass.
// The outcome is written even when ctx is cancelled mid-pass; an interrupted
// task goes back to pending without using up an attempt.
func (s *Service) processTask(ctx context.Context, t Task) (Status, error) {
	result := s.deleter.DeleteMany(ctx, t.FileKeys)

	remaining := result.FailedKeys
	if remaining == nil {
		remaining = []string{}
	}
	if len(remaining) > 0 && ctx.Err() != nil {
		if err := s.release(ctx, t, remaining); err != nil {
			return "", err
		}
		return StatusPending, nil
	}

	var status Status
	switch {
	case len(remaining) == 0:
		status = StatusCompleted
	case t.Attempts >= MaxAttempts:
		status = StatusFailed
		s.log.Error("cleanup task exhausted retries",
			zap.String("task_id", t.ID),
			zap.String("resource_type", t.ResourceType),
			zap.String("resource_id", t.ResourceID),
			zap.Strings("keys", remaining),
		)
	default:
		status = StatusPending
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := s.store.Finish(wctx, t.ID, status, remaining); err != nil {
		return "", err
	}
	return status, nil
}

func (s *Service) release(ctx context.Context, t Task, remaining []string) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := s.store.Release(wctx, t.ID, remaining); err != nil {
		s.log.Error("cleanup task release failed", zap.String("task_id", t.ID), zap.Error(err))
		return err
	}
	s.log.Info("cleanup task interrupted, returned to pending",
		zap.String("task_id", t.ID),
		zap.Int("keys", len(remaining)),
	)
	return nil
}

// Stats returns queue counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, apperr.Internal(err, "failed to load cleanup stats")
	}
	return st, nil
}

// Get returns a single task.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	t, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("cleanup task not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load cleanup task")
	}
	return t, nil
}

// List returns tasks filtered by status. An empty status lists everything.
func (s *Service) List(ctx context.Context, status Status, limit int) ([]Task, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	tasks, err := s.store.List(ctx, status, limit)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list cleanup tasks")
	}
	return tasks, nil
}
