package customer

import (
	"context"
	"errors"

	"github.com/storefront/admin/internal/apperr"
)

// Store is the persistence the customer service needs.
type Store interface {
	Create(ctx context.Context, c Customer) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, search string) ([]Customer, error)
	Update(ctx context.Context, c Customer) (*Customer, error)
	Delete(ctx context.Context, id string) error
}

// Service contains business logic for customers.
type Service struct {
	store Store
}

// NewService creates a new customer Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, in Input) (*Customer, error) {
	c, err := New(in)
	if err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, c)
	return created, translate(err, "failed to create customer")
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	c, err := s.store.GetByID(ctx, id)
	return c, translate(err, "failed to load customer")
}

func (s *Service) List(ctx context.Context, search string) ([]Customer, error) {
	out, err := s.store.List(ctx, search)
	return out, translate(err, "failed to list customers")
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Customer, error) {
	c, err := New(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	updated, err := s.store.Update(ctx, c)
	return updated, translate(err, "failed to update customer")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return translate(s.store.Delete(ctx, id), "failed to delete customer")
}

func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("customer not found")
	case errors.Is(err, ErrEmailTaken):
		return apperr.Conflict("a customer with this email already exists")
	case errors.Is(err, ErrInUse):
		return apperr.Conflict("customer has orders and cannot be deleted")
	}
	return apperr.Internal(err, msg)
}
