package email

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
)

// Store is the persistence the email service needs.
type Store interface {
	Create(ctx context.Context, e Email) (*Email, error)
	GetByID(ctx context.Context, id string) (*Email, error)
	List(ctx context.Context, f ListFilter) ([]Email, error)
	SetStatus(ctx context.Context, id string, status Status, errorMessage string) (*Email, error)
	Delete(ctx context.Context, id string) error
	DeleteByStatus(ctx context.Context, status Status) (int64, error)
}

// Options configures senders and links.
type Options struct {
	From         Recipient
	AdminEmail   string
	DashboardURL string
}

// Service records emails and hands them to a Mailer.
type Service struct {
	store  Store
	mailer Mailer
	opts   Options
	log    *zap.Logger
}

// NewService creates a new email Service.
func NewService(store Store, mailer Mailer, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, mailer: mailer, opts: opts, log: log}
}

// Send stores the email as pending and dispatches it. A delivery failure is
// recorded on the returned email, not returned as an error.
func (s *Service) Send(ctx context.Context, in CreateInput) (*Email, error) {
	e, err := New(in, s.opts.From)
	if err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, e)
	if err != nil {
		return nil, apperr.Internal(err, "failed to create email")
	}
	return s.deliver(ctx, created)
}

// Resend dispatches an existing email again.
func (s *Service) Resend(ctx context.Context, id string) (*Email, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusSent {
		return nil, apperr.Conflict("email has already been sent")
	}
	return s.deliver(ctx, e)
}

func (s *Service) deliver(ctx context.Context, e *Email) (*Email, error) {
	status, msg := StatusSent, ""
	if err := s.mailer.Send(ctx, e.Message()); err != nil {
		s.log.Error("email delivery failed", zap.String("email_id", e.ID), zap.String("subject", e.Subject), zap.Error(err))
		status, msg = StatusFailed, err.Error()
	}
	updated, err := s.store.SetStatus(ctx, e.ID, status, msg)
	if err != nil {
		return nil, apperr.Internal(err, "failed to update email status")
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Email, error) {
	e, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("email not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get email")
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Email, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", f.Status)
	}
	f.Recipient = strings.TrimSpace(f.Recipient)
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list emails")
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("email not found")
	}
	if err != nil {
		return apperr.Internal(err, "failed to delete email")
	}
	return nil
}

func (s *Service) DeleteByStatus(ctx context.Context, status Status) (int64, error) {
	if !status.Valid() {
		return 0, apperr.Validation("invalid status %q", status)
	}
	n, err := s.store.DeleteByStatus(ctx, status)
	if err != nil {
		return 0, apperr.Internal(err, "failed to delete emails")
	}
	return n, nil
}

// SendOrderConfirmation emails the customer a summary of their order.
func (s *Service) SendOrderConfirmation(ctx context.Context, to Recipient, order OrderSummary) (*Email, error) {
	r, err := RenderOrderConfirmation(order)
	if err != nil {
		return nil, apperr.Internal(err, "failed to render email")
	}
	return s.sendRendered(ctx, TypeOrderConfirmation, PriorityHigh, []Recipient{to}, r)
}

// SendShippingUpdate emails the customer their tracking number.
func (s *Service) SendShippingUpdate(ctx context.Context, to Recipient, orderNumber, trackingNumber string) (*Email, error) {
	r, err := RenderShippingUpdate(orderNumber, trackingNumber)
	if err != nil {
		return nil, apperr.Internal(err, "failed to render email")
	}
	return s.sendRendered(ctx, TypeShippingUpdate, PriorityNormal, []Recipient{to}, r)
}

// SendPasswordReset emails a reset link.
func (s *Service) SendPasswordReset(ctx context.Context, to Recipient, resetURL string) (*Email, error) {
	r, err := RenderPasswordReset(resetURL)
	if err != nil {
		return nil, apperr.Internal(err, "failed to render email")
	}
	return s.sendRendered(ctx, TypePasswordReset, PriorityHigh, []Recipient{to}, r)
}

// NotifyAdminOrder alerts the store admin about a new order. It is a no-op
// when no admin address is configured.
func (s *Service) NotifyAdminOrder(ctx context.Context, order OrderSummary) error {
	if s.opts.AdminEmail == "" {
		s.log.Warn("admin email not configured, skipping order notification", zap.String("order_number", order.OrderNumber))
		return nil
	}
	if order.DashboardURL == "" {
		order.DashboardURL = strings.TrimRight(s.opts.DashboardURL, "/") + "/dashboard/orders"
	}
	r, err := RenderAdminOrder(order)
	if err != nil {
		return apperr.Internal(err, "failed to render email")
	}
	e, err := s.sendRendered(ctx, TypeAdminNotification, PriorityHigh, []Recipient{{Email: s.opts.AdminEmail}}, r)
	if err != nil {
		return err
	}
	if e.Status == StatusFailed {
		return errors.New(e.ErrorMessage)
	}
	return nil
}

func (s *Service) sendRendered(ctx context.Context, t Type, p Priority, to []Recipient, r Rendered) (*Email, error) {
	return s.Send(ctx, CreateInput{Type: t, To: to, Subject: r.Subject, HTML: r.HTML, Text: r.Text, Priority: p})
}
