// Package payment records payments against orders.
package payment

import (
	"strings"
	"time"

	"github.com/storefront/admin/internal/apperr"
)

type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodPayPal       Method = "paypal"
	MethodStripe       Method = "stripe"
	MethodBankTransfer Method = "bank_transfer"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodPayPal, MethodStripe, MethodBankTransfer:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// DefaultCurrency is used when a payment is created without one.
const DefaultCurrency = "USD"

// Payment is a payment attempt for an order.
type Payment struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	CustomerID    string    `json:"customerId"`
	Amount        float64   `json:"amount"   example:"27.59"`
	Currency      string    `json:"currency" example:"USD"`
	Method        Method    `json:"method"   example:"credit_card"`
	Status        Status    `json:"status"   example:"pending"`
	TransactionID string    `json:"transactionId,omitempty"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateInput holds the fields of a new payment. CustomerID defaults to the
// order's customer.
type CreateInput struct {
	OrderID    string  `json:"orderId"`
	CustomerID string  `json:"customerId,omitempty"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency,omitempty"`
	Method     Method  `json:"method"`
}

// UpdateInput holds editable payment fields. Nil fields are left unchanged.
type UpdateInput struct {
	Status        *Status `json:"status,omitempty"`
	TransactionID *string `json:"transactionId,omitempty"`
	ErrorMessage  *string `json:"errorMessage,omitempty"`
}

// New validates in and builds a pending payment.
func New(in CreateInput) (Payment, error) {
	p := Payment{
		OrderID:    strings.TrimSpace(in.OrderID),
		CustomerID: strings.TrimSpace(in.CustomerID),
		Amount:     in.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
		Method:     in.Method,
		Status:     StatusPending,
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	switch {
	case p.OrderID == "":
		return Payment{}, apperr.Validation("order is required")
	case p.Amount <= 0:
		return Payment{}, apperr.Validation("amount must be greater than 0")
	case len(p.Currency) != 3:
		return Payment{}, apperr.Validation("currency must be a 3 letter ISO code")
	case !p.Method.Valid():
		return Payment{}, apperr.Validation("method must be one of: credit_card, paypal, stripe, bank_transfer")
	}
	return p, nil
}

// Apply returns a copy of p with in applied.
func (p Payment) Apply(in UpdateInput) (Payment, error) {
	out := p
	if in.Status != nil {
		if !in.Status.Valid() {
			return Payment{}, apperr.Validation("invalid payment status %q", *in.Status)
		}
		out.Status = *in.Status
	}
	if in.TransactionID != nil {
		out.TransactionID = strings.TrimSpace(*in.TransactionID)
	}
	if in.ErrorMessage != nil {
		out.ErrorMessage = strings.TrimSpace(*in.ErrorMessage)
	}
	return out, nil
}
