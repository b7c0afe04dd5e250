package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/notification"
	"github.com/storefront/admin/internal/order"
)

// Store is the persistence the payment service needs.
type Store interface {
	Create(ctx context.Context, p Payment) (*Payment, error)
	GetByID(ctx context.Context, id string) (*Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Payment, error)
	Update(ctx context.Context, p Payment) (*Payment, error)
	Delete(ctx context.Context, id string) error
}

// Orders resolves the order a payment belongs to and mirrors the payment
// outcome onto it.
type Orders interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	SetPaymentStatus(ctx context.Context, id string, status order.PaymentStatus) (*order.Order, error)
}

// Notifier writes entries to the admin notification feed.
type Notifier interface {
	Create(ctx context.Context, in notification.CreateInput) (*notification.Notification, error)
}

// Service contains business logic for payments.
type Service struct {
	store    Store
	orders   Orders
	notifier Notifier
	log      *zap.Logger
	newTxnID func() string
}

// NewService creates a new payment Service.
func NewService(store Store, orders Orders, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		orders:   orders,
		notifier: notifier,
		log:      log,
		newTxnID: func() string { return "txn_" + uuid.NewString() },
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Payment, error) {
	p, err := New(in)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.Get(ctx, p.OrderID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Validation("order not found")
	}
	if err != nil {
		return nil, err
	}
	if p.CustomerID == "" {
		p.CustomerID = o.CustomerID
	}
	if p.CustomerID != o.CustomerID {
		return nil, apperr.Validation("customer does not match the order")
	}

	created, err := s.store.Create(ctx, p)
	if errors.Is(err, ErrInvalidReference) {
		return nil, apperr.Validation("order or customer not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to create payment")
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("payment not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get payment")
	}
	return p, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	out, err := s.store.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list payments")
	}
	return out, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Payment, error) {
	out, err := s.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list payments")
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Payment, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := p.Apply(in)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, p.Status, next)
}

// Process completes a pending or failed payment and assigns a transaction id.
func (s *Service) Process(ctx context.Context, id string) (*Payment, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending && p.Status != StatusFailed {
		return nil, apperr.Validation("only pending or failed payments can be processed")
	}
	next := *p
	next.Status = StatusCompleted
	next.TransactionID = s.newTxnID()
	next.ErrorMessage = ""
	return s.save(ctx, p.Status, next)
}

// Refund refunds a completed payment.
func (s *Service) Refund(ctx context.Context, id string) (*Payment, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusCompleted {
		return nil, apperr.Validation("only completed payments can be refunded")
	}
	next := *p
	next.Status = StatusRefunded
	return s.save(ctx, p.Status, next)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("payment not found")
	}
	if err != nil {
		return apperr.Internal(err, "failed to delete payment")
	}
	return nil
}

func (s *Service) save(ctx context.Context, old Status, p Payment) (*Payment, error) {
	updated, err := s.store.Update(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("payment not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update payment")
	}
	if updated.Status != old {
		s.statusChanged(ctx, updated, old)
	}
	return updated, nil
}

// statusChanged notifies admins and mirrors completed or failed payments onto
// the order. Failures are logged only.
func (s *Service) statusChanged(ctx context.Context, p *Payment, old Status) {
	priority := notification.PriorityMedium
	if p.Status == StatusFailed || p.Status == StatusRefunded {
		priority = notification.PriorityHigh
	}
	if _, err := s.notifier.Create(ctx, notification.CreateInput{
		Type:     notification.TypePaymentStatus,
		Title:    "Payment status changed",
		Message:  fmt.Sprintf("Payment of %.2f %s changed from %s to %s", p.Amount, p.Currency, old, p.Status),
		Priority: priority,
		Data: map[string]any{
			"paymentId":     p.ID,
			"orderId":       p.OrderID,
			"oldStatus":     string(old),
			"newStatus":     string(p.Status),
			"transactionId": p.TransactionID,
		},
	}); err != nil {
		s.log.Error("payment notification failed", zap.String("payment_id", p.ID), zap.Error(err))
	}

	var mirrored order.PaymentStatus
	switch p.Status {
	case StatusCompleted:
		mirrored = order.PaymentPaid
	case StatusFailed:
		mirrored = order.PaymentFailed
	default:
		return
	}
	if _, err := s.orders.SetPaymentStatus(ctx, p.OrderID, mirrored); err != nil {
		s.log.Error("order payment status update failed", zap.String("order_id", p.OrderID), zap.Error(err))
	}
}
