package category

import (
	"context"
	"errors"

	"github.com/storefront/admin/internal/apperr"
)

// Store is the persistence the category service needs.
type Store interface {
	Create(ctx context.Context, c Category) (*Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Update(ctx context.Context, c Category) (*Category, error)
	Delete(ctx context.Context, id string) error
}

// Service contains business logic for categories.
type Service struct {
	store Store
}

// NewService creates a new category Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	c, err := New(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, c); err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, c)
	return created, translate(err, "failed to create category")
}

func (s *Service) Get(ctx context.Context, id string) (*Category, error) {
	c, err := s.store.GetByID(ctx, id)
	return c, translate(err, "failed to load category")
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	out, err := s.store.List(ctx, activeOnly)
	return out, translate(err, "failed to list categories")
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Category, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := current.Apply(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, next); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, next)
	return updated, translate(err, "failed to update category")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return translate(s.store.Delete(ctx, id), "failed to delete category")
}

// checkParent requires the parent to exist and not be c itself or one of its
// descendants.
func (s *Service) checkParent(ctx context.Context, c Category) error {
	seen := map[string]bool{}
	for pid := c.ParentID; pid != nil; {
		if c.ID != "" && *pid == c.ID {
			return apperr.Validation("a category cannot be nested under itself")
		}
		if seen[*pid] {
			break
		}
		seen[*pid] = true

		parent, err := s.store.GetByID(ctx, *pid)
		if errors.Is(err, ErrNotFound) {
			return apperr.Validation("parent category does not exist")
		}
		if err != nil {
			return apperr.Internal(err, "failed to load parent category")
		}
		pid = parent.ParentID
	}
	return nil
}

func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("category not found")
	case errors.Is(err, ErrAlreadyExists):
		return apperr.Conflict("a category with this name already exists")
	case errors.Is(err, ErrInvalidParent):
		return apperr.Validation("parent category does not exist")
	}
	return apperr.Internal(err, msg)
}
