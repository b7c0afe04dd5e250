package product

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/slug"
)

// Status is the catalog visibility of a product.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// MaxImages is the number of images a product can carry.
const MaxImages = 5

// Product is a catalog entry. Images holds object storage keys.
type Product struct {
	ID          string    `json:"id"          example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	Name        string    `json:"name"        example:"Blue Shirt"`
	Description string    `json:"description" example:"Cotton shirt"`
	Slug        string    `json:"slug"        example:"blue-shirt"`
	SKU         string    `json:"sku"         example:"SKU-1700000000000-42"`
	Price       float64   `json:"price"       example:"19.99"`
	Stock       int       `json:"stock"       example:"10"`
	Category    string    `json:"category"    example:"shirts"`
	Images      []string  `json:"images"`
	Status      Status    `json:"status"      example:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// View is a product with signed image URLs, as returned to clients.
type View struct {
	Product
	ImageURLs []string `json:"imageUrls"`
}

// Input holds the writable product fields.
type Input struct {
	Name        string  `json:"name"        example:"Blue Shirt"`
	Description string  `json:"description" example:"Cotton shirt"`
	Price       float64 `json:"price"       example:"19.99"`
	Stock       int     `json:"stock"       example:"10"`
	Category    string  `json:"category"    example:"shirts"`
	Status      Status  `json:"status,omitempty" example:"active"`
}

// UpdateInput holds optional product changes. Nil fields are left as-is.
type UpdateInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Status      *Status  `json:"status,omitempty"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Category string
	Status   Status
	Search   string
}

// NewProduct validates in and builds a product with a derived slug and a
// fresh SKU.
func NewProduct(in Input, images []string, now time.Time) (Product, error) {
	p := Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		Images:      append([]string{}, images...),
		Status:      in.Status,
		SKU:         newSKU(now),
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	p.Slug = slug.Make(p.Name)
	if err := p.validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Apply returns a copy of p with the non-nil fields of in set and revalidated.
func (p Product) Apply(in UpdateInput) (Product, error) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		p.Slug = slug.Make(p.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	p.Images = append([]string{}, p.Images...)
	if err := p.validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// WithStockDelta returns a copy of p with stock moved by delta.
func (p Product) WithStockDelta(delta int) (Product, error) {
	if p.Stock+delta < 0 {
		return Product{}, apperr.Validation("insufficient stock")
	}
	p.Stock += delta
	return p, nil
}

func (p Product) validate() error {
	switch {
	case p.Name == "":
		return apperr.Validation("product name cannot be empty")
	case p.Slug == "":
		return apperr.Validation("product name must contain letters or digits")
	case p.Description == "":
		return apperr.Validation("product description cannot be empty")
	case p.Category == "":
		return apperr.Validation("category cannot be empty")
	case p.Price < 0:
		return apperr.Validation("price cannot be negative")
	case p.Stock < 0:
		return apperr.Validation("stock cannot be negative")
	case !p.Status.Valid():
		return apperr.Validation("status must be one of: active, inactive")
	case len(p.Images) > MaxImages:
		return apperr.Validation("a product can have at most %d images", MaxImages)
	}
	return nil
}

func newSKU(now time.Time) string {
	return fmt.Sprintf("SKU-%d-%d", now.UnixMilli(), rand.IntN(1000))
}
