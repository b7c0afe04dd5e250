// Package order holds orders, their pricing and their status machine.
package order

import (
	"math"
	"strings"
	"time"

	"github.com/storefront/admin/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions lists the allowed next statuses. Delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid || p == PaymentFailed
}

type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
)

var shippingFees = map[ShippingMethod]float64{
	ShippingStandard:  5.99,
	ShippingExpress:   12.99,
	ShippingOvernight: 24.99,
}

// TaxRate is applied to the item subtotal.
const TaxRate = 0.08

// Item is one order line. Name and price are captured at order time.
type Item struct {
	ProductID string  `json:"productId" example:"3f1c..."`
	Name      string  `json:"name"      example:"Desk Lamp"`
	Price     float64 `json:"price"     example:"10.00"`
	Quantity  int     `json:"quantity"  example:"2"`
	Image     string  `json:"image,omitempty"`
}

// Address is a shipping destination.
type Address struct {
	Street  string `json:"street"  example:"1 Main St"`
	City    string `json:"city"    example:"Springfield"`
	State   string `json:"state"   example:"IL"`
	ZipCode string `json:"zipCode" example:"62701"`
	Country string `json:"country" example:"US"`
	Phone   string `json:"phone,omitempty"`
}

func (a Address) complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.ZipCode != "" && a.Country != ""
}

func (a Address) trimmed() Address {
	return Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
		Phone:   strings.TrimSpace(a.Phone),
	}
}

// Totals is the priced breakdown of an order.
type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shippingCost"`
	Tax          float64 `json:"tax"`
	Total        float64 `json:"totalAmount"`
}

// Order is a customer order.
type Order struct {
	ID              string         `json:"id"`
	OrderNumber     string         `json:"orderNumber" example:"ORD000042"`
	CustomerID      string         `json:"customerId"`
	Items           []Item         `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	ShippingMethod  ShippingMethod `json:"shippingMethod" example:"standard"`
	Subtotal        float64        `json:"subtotal"       example:"20.00"`
	ShippingCost    float64        `json:"shippingCost"   example:"5.99"`
	Tax             float64        `json:"tax"            example:"1.60"`
	TotalAmount     float64        `json:"totalAmount"    example:"27.59"`
	Status          Status         `json:"status"         example:"pending"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus"  example:"pending"`
	TrackingNumber  string         `json:"trackingNumber,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// CreateInput holds the fields of a new order.
type CreateInput struct {
	CustomerID      string         `json:"customerId"`
	Items           []Item         `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	ShippingMethod  ShippingMethod `json:"shippingMethod"`
	Notes           string         `json:"notes,omitempty"`
}

// UpdateInput holds editable order fields. Nil fields are left unchanged.
// The shipping method can only change while the order is pending.
type UpdateInput struct {
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	ShippingMethod  *ShippingMethod `json:"shippingMethod,omitempty"`
	TrackingNumber  *string         `json:"trackingNumber,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

// ListFilter narrows List. Zero fields match everything.
type ListFilter struct {
	Status     Status
	CustomerID string
	From       *time.Time
	To         *time.Time
}

// CalculateTotals prices items for the given shipping method.
func CalculateTotals(items []Item, method ShippingMethod) (Totals, error) {
	fee, ok := shippingFees[method]
	if !ok {
		return Totals{}, apperr.Validation("shipping method must be one of: standard, express, overnight")
	}
	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * TaxRate)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: fee,
		Tax:          tax,
		Total:        round2(subtotal + tax + fee),
	}, nil
}

// NewOrder validates in and builds a pending, priced order. The order number
// is assigned by the store.
func NewOrder(in CreateInput) (Order, error) {
	o := Order{
		CustomerID:      strings.TrimSpace(in.CustomerID),
		ShippingAddress: in.ShippingAddress.trimmed(),
		ShippingMethod:  in.ShippingMethod,
		Notes:           strings.TrimSpace(in.Notes),
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
	}
	if o.ShippingMethod == "" {
		o.ShippingMethod = ShippingStandard
	}
	if o.CustomerID == "" {
		return Order{}, apperr.Validation("customer is required")
	}
	if len(in.Items) == 0 {
		return Order{}, apperr.Validation("order must contain at least one item")
	}
	o.Items = make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		it.Name = strings.TrimSpace(it.Name)
		switch {
		case it.ProductID == "":
			return Order{}, apperr.Validation("product is required for each item")
		case it.Quantity <= 0:
			return Order{}, apperr.Validation("quantity must be greater than 0 for each item")
		case it.Price <= 0:
			return Order{}, apperr.Validation("price must be greater than 0 for each item")
		}
		o.Items = append(o.Items, it)
	}
	if !o.ShippingAddress.complete() {
		return Order{}, apperr.Validation("street, city, state, zipCode and country are required in the shipping address")
	}

	t, err := CalculateTotals(o.Items, o.ShippingMethod)
	if err != nil {
		return Order{}, err
	}
	o.applyTotals(t)
	return o, nil
}

// Apply returns a copy of o with in applied.
func (o Order) Apply(in UpdateInput) (Order, error) {
	out := o
	out.Items = append([]Item(nil), o.Items...)
	if in.ShippingAddress != nil {
		out.ShippingAddress = in.ShippingAddress.trimmed()
		if !out.ShippingAddress.complete() {
			return Order{}, apperr.Validation("street, city, state, zipCode and country are required in the shipping address")
		}
	}
	if in.ShippingMethod != nil && *in.ShippingMethod != o.ShippingMethod {
		if o.Status != StatusPending {
			return Order{}, apperr.Validation("shipping method can only change while the order is pending")
		}
		t, err := CalculateTotals(out.Items, *in.ShippingMethod)
		if err != nil {
			return Order{}, err
		}
		out.ShippingMethod = *in.ShippingMethod
		out.applyTotals(t)
	}
	if in.TrackingNumber != nil {
		out.TrackingNumber = strings.TrimSpace(*in.TrackingNumber)
	}
	if in.Notes != nil {
		out.Notes = strings.TrimSpace(*in.Notes)
	}
	return out, nil
}

// Transition returns a copy of o moved to next. A non-empty tracking number
// replaces the stored one.
func (o Order) Transition(next Status, trackingNumber string) (Order, error) {
	if !next.Valid() {
		return Order{}, apperr.Validation("invalid order status %q", next)
	}
	if !o.Status.CanTransition(next) {
		return Order{}, apperr.Validation("cannot change order status from %s to %s", o.Status, next)
	}
	out := o
	out.Status = next
	if tn := strings.TrimSpace(trackingNumber); tn != "" {
		out.TrackingNumber = tn
	}
	return out, nil
}

func (o *Order) applyTotals(t Totals) {
	o.Subtotal = t.Subtotal
	o.ShippingCost = t.ShippingCost
	o.Tax = t.Tax
	o.TotalAmount = t.Total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
