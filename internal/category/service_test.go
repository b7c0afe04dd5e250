package category

import (
	"context"
	"fmt"
	"testing"

	"github.com/storefront/admin/internal/apperr"
)

type memStore struct {
	items map[string]*Category
	seq   int
}

func (m *memStore) Create(ctx context.Context, c Category) (*Category, error) {
	for _, e := range m.items {
		if e.Name == c.Name || e.Slug == c.Slug {
			return nil, ErrAlreadyExists
		}
	}
	m.seq++
	c.ID = fmt.Sprintf("c%d", m.seq)
	m.items[c.ID] = &c
	cp := c
	return &cp, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*Category, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	out := []Category{}
	for _, c := range m.items {
		if !activeOnly || c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, c Category) (*Category, error) {
	if _, ok := m.items[c.ID]; !ok {
		return nil, ErrNotFound
	}
	m.items[c.ID] = &c
	cp := c
	return &cp, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestCreateCategory(t *testing.T) {
	svc := NewService(&memStore{items: map[string]*Category{}})

	c, err := svc.Create(context.Background(), Input{Name: "Men's Shirts", Description: "Shirts"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Slug != "mens-shirts" || !c.IsActive {
		t.Fatalf("unexpected category %+v", c)
	}

	if _, err := svc.Create(context.Background(), Input{Name: "Men's Shirts", Description: "again"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.Create(context.Background(), Input{Name: "No Description"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParentChecks(t *testing.T) {
	svc := NewService(&memStore{items: map[string]*Category{}})
	ctx := context.Background()

	if _, err := svc.Create(ctx, Input{Name: "Orphan", Description: "x", ParentID: ptr("missing")}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected missing parent to be rejected, got %v", err)
	}

	root, _ := svc.Create(ctx, Input{Name: "Clothing", Description: "x"})
	child, err := svc.Create(ctx, Input{Name: "Shirts", Description: "x", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if _, err := svc.Update(ctx, root.ID, Input{Name: "Clothing", Description: "x", ParentID: &root.ID}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected self parent to be rejected, got %v", err)
	}
	if _, err := svc.Update(ctx, root.ID, Input{Name: "Clothing", Description: "x", ParentID: &child.ID}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected cycle to be rejected, got %v", err)
	}

	updated, err := svc.Update(ctx, child.ID, Input{Name: "Shirts", Description: "x", ParentID: ptr("")})
	if err != nil || updated.ParentID != nil {
		t.Fatalf("expected blank parent to detach, got %+v (%v)", updated, err)
	}
}

func TestDeleteMissing(t *testing.T) {
	svc := NewService(&memStore{items: map[string]*Category{}})
	if err := svc.Delete(context.Background(), "nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
