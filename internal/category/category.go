// Package category manages the product category tree.
package category

import (
	"strings"
	"time"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/slug"
)

// Category is a node in the category tree.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        example:"Shirts"`
	Description string    `json:"description" example:"All kinds of shirts"`
	Slug        string    `json:"slug"        example:"shirts"`
	ParentID    *string   `json:"parentId,omitempty"`
	IsActive    bool      `json:"isActive"    example:"true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input holds the writable category fields.
type Input struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// New validates in and builds a category.
func New(in Input) (Category, error) {
	c := Category{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ParentID:    normalizeParent(in.ParentID),
		IsActive:    true,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.Slug = slug.Make(c.Name)
	if err := c.validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

// Apply returns a copy of c with in applied. The name and description are
// always replaced; parent and active flag only when given.
func (c Category) Apply(in Input) (Category, error) {
	c.Name = strings.TrimSpace(in.Name)
	c.Description = strings.TrimSpace(in.Description)
	c.Slug = slug.Make(c.Name)
	if in.ParentID != nil {
		c.ParentID = normalizeParent(in.ParentID)
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := c.validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (c Category) validate() error {
	switch {
	case c.Name == "":
		return apperr.Validation("category name is required")
	case c.Slug == "":
		return apperr.Validation("category name must contain letters or digits")
	case c.Description == "":
		return apperr.Validation("category description is required")
	case c.ID != "" && c.ParentID != nil && *c.ParentID == c.ID:
		return apperr.Validation("a category cannot be its own parent")
	}
	return nil
}

// normalizeParent maps a blank parent to nil.
func normalizeParent(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
