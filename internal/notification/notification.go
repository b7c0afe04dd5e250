// Package notification stores the admin activity feed.
package notification

import (
	"strings"
	"time"

	"github.com/storefront/admin/internal/apperr"
)

// Type classifies a notification.
type Type string

const (
	TypeOrderPlaced        Type = "order_placed"
	TypeOrderStatusChanged Type = "order_status_changed"
	TypeShippingUpdate     Type = "shipping_update"
	TypePaymentStatus      Type = "payment_status"
	TypeSystem             Type = "system"
	TypePromotion          Type = "promotion"
)

var validTypes = map[Type]bool{
	TypeOrderPlaced:        true,
	TypeOrderStatusChanged: true,
	TypeShippingUpdate:     true,
	TypePaymentStatus:      true,
	TypeSystem:             true,
	TypePromotion:          true,
}

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultLimit is the page size of List when none is given.
const DefaultLimit = 50

// Notification is one entry of the feed.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"     example:"order_placed"`
	Title     string         `json:"title"    example:"New order"`
	Message   string         `json:"message"  example:"Order ORD000042 placed by Jane Doe"`
	Priority  Priority       `json:"priority" example:"medium"`
	Data      map[string]any `json:"data"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// CreateInput holds the fields of a new notification.
type CreateInput struct {
	Type     Type           `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority Priority       `json:"priority,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// New validates in and builds an unread notification.
func New(in CreateInput) (Notification, error) {
	n := Notification{
		Type:     in.Type,
		Title:    strings.TrimSpace(in.Title),
		Message:  strings.TrimSpace(in.Message),
		Priority: in.Priority,
		Data:     in.Data,
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	switch {
	case !validTypes[n.Type]:
		return Notification{}, apperr.Validation("invalid notification type %q", n.Type)
	case n.Priority != PriorityLow && n.Priority != PriorityMedium && n.Priority != PriorityHigh:
		return Notification{}, apperr.Validation("priority must be one of: low, medium, high")
	case n.Title == "" || n.Message == "":
		return Notification{}, apperr.Validation("title and message are required")
	}
	return n, nil
}
