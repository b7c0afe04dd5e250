// Package customer stores shop customers referenced by orders and payments.
package customer

import (
	"net/mail"
	"strings"
	"time"

	"github.com/storefront/admin/internal/apperr"
)

// Customer is a shop customer.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"  example:"John Smith"`
	Email     string    `json:"email" example:"john@example.com"`
	Phone     string    `json:"phone,omitempty" example:"+1 555 0100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Input holds the writable customer fields.
type Input struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// New validates in and builds a customer.
func New(in Input) (Customer, error) {
	c := Customer{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Phone: strings.TrimSpace(in.Phone),
	}
	if c.Name == "" {
		return Customer{}, apperr.Validation("name is required")
	}
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return Customer{}, apperr.Validation("a valid email is required")
	}
	return c, nil
}
