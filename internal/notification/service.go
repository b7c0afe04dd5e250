package notification

import (
	"context"
	"errors"

	"github.com/storefront/admin/internal/apperr"
)

// Store is the persistence the notification service needs.
type Store interface {
	Create(ctx context.Context, n Notification) (*Notification, error)
	List(ctx context.Context, limit int, unreadOnly bool) ([]Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) (*Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// Service contains business logic for notifications.
type Service struct {
	store Store
}

// NewService creates a new notification Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and stores a notification.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Notification, error) {
	n, err := New(in)
	if err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, n)
	if err != nil {
		return nil, apperr.Internal(err, "failed to create notification")
	}
	return created, nil
}

// List returns up to limit notifications, newest first. limit defaults to 50.
func (s *Service) List(ctx context.Context, limit int, unreadOnly bool) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out, err := s.store.List(ctx, limit, unreadOnly)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list notifications")
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	n, err := s.store.UnreadCount(ctx)
	if err != nil {
		return 0, apperr.Internal(err, "failed to count notifications")
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) (*Notification, error) {
	n, err := s.store.MarkRead(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("notification not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update notification")
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.store.MarkAllRead(ctx)
	if err != nil {
		return 0, apperr.Internal(err, "failed to update notifications")
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("notification not found")
	}
	if err != nil {
		return apperr.Internal(err, "failed to delete notification")
	}
	return nil
}
