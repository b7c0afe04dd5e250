// Package email records outgoing mail and dispatches it through a Mailer.
package email

import (
	"net/mail"
	"strings"
	"time"

	"github.com/storefront/admin/internal/apperr"
)

type Type string

const (
	TypeOrderConfirmation   Type = "order_confirmation"
	TypeShippingUpdate      Type = "shipping_update"
	TypePaymentConfirmation Type = "payment_confirmation"
	TypePasswordReset       Type = "password_reset"
	TypeWelcome             Type = "welcome"
	TypePromotion           Type = "promotion"
	TypeAdminNotification   Type = "admin_notification"
)

var validTypes = map[Type]bool{
	TypeOrderConfirmation:   true,
	TypeShippingUpdate:      true,
	TypePaymentConfirmation: true,
	TypePasswordReset:       true,
	TypeWelcome:             true,
	TypePromotion:           true,
	TypeAdminNotification:   true,
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is a known delivery status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusSent || s == StatusFailed
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Recipient is a mailbox with an optional display name.
type Recipient struct {
	Email string `json:"email"          example:"jane@example.com"`
	Name  string `json:"name,omitempty" example:"Jane Doe"`
}

// Email is a stored outgoing message and its delivery state.
type Email struct {
	ID           string      `json:"id"`
	Type         Type        `json:"type"     example:"order_confirmation"`
	From         Recipient   `json:"from"`
	To           []Recipient `json:"to"`
	Cc           []Recipient `json:"cc"`
	Bcc          []Recipient `json:"bcc"`
	Subject      string      `json:"subject"`
	HTML         string      `json:"html"`
	Text         string      `json:"text,omitempty"`
	Priority     Priority    `json:"priority" example:"normal"`
	Status       Status      `json:"status"   example:"sent"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	SentAt       *time.Time  `json:"sentAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Message converts the record into what a Mailer sends.
func (e Email) Message() Message {
	return Message{From: e.From, To: e.To, Cc: e.Cc, Bcc: e.Bcc, Subject: e.Subject, HTML: e.HTML, Text: e.Text}
}

// CreateInput holds the fields of a new email. From falls back to the
// service's default sender.
type CreateInput struct {
	Type     Type        `json:"type"`
	From     *Recipient  `json:"from,omitempty"`
	To       []Recipient `json:"to"`
	Cc       []Recipient `json:"cc,omitempty"`
	Bcc      []Recipient `json:"bcc,omitempty"`
	Subject  string      `json:"subject"`
	HTML     string      `json:"html"`
	Text     string      `json:"text,omitempty"`
	Priority Priority    `json:"priority,omitempty"`
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Status    Status
	Type      Type
	Recipient string
}

// New validates in and builds a pending email.
func New(in CreateInput, defaultFrom Recipient) (Email, error) {
	e := Email{
		Type:     in.Type,
		From:     defaultFrom,
		Subject:  strings.TrimSpace(in.Subject),
		HTML:     in.HTML,
		Text:     in.Text,
		Priority: in.Priority,
		Status:   StatusPending,
	}
	if in.From != nil && in.From.Email != "" {
		e.From = *in.From
	}
	if e.Priority == "" {
		e.Priority = PriorityNormal
	}
	if !validTypes[e.Type] {
		return Email{}, apperr.Validation("invalid email type %q", e.Type)
	}
	if e.Priority != PriorityLow && e.Priority != PriorityNormal && e.Priority != PriorityHigh {
		return Email{}, apperr.Validation("priority must be one of: low, normal, high")
	}
	if e.Subject == "" || strings.TrimSpace(e.HTML) == "" {
		return Email{}, apperr.Validation("subject and html are required")
	}
	if len(in.To) == 0 {
		return Email{}, apperr.Validation("at least one recipient is required")
	}

	var err error
	if e.From, err = normalize(e.From); err != nil {
		return Email{}, err
	}
	if e.To, err = normalizeAll(in.To); err != nil {
		return Email{}, err
	}
	if e.Cc, err = normalizeAll(in.Cc); err != nil {
		return Email{}, err
	}
	if e.Bcc, err = normalizeAll(in.Bcc); err != nil {
		return Email{}, err
	}
	return e, nil
}

func normalize(r Recipient) (Recipient, error) {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return Recipient{}, apperr.Validation("invalid email address %q", r.Email)
	}
	return r, nil
}

func normalizeAll(rs []Recipient) ([]Recipient, error) {
	out := make([]Recipient, 0, len(rs))
	for _, r := range rs {
		n, err := normalize(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
