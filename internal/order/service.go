package order

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/customer"
	"github.com/storefront/admin/internal/email"
	"github.com/storefront/admin/internal/notification"
)

// Store is the persistence the order service needs.
type Store interface {
	Create(ctx context.Context, o Order) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	Update(ctx context.Context, o Order) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) (*Order, error)
	Delete(ctx context.Context, id string) error
}

// Customers resolves the customer an order belongs to.
type Customers interface {
	Get(ctx context.Context, id string) (*customer.Customer, error)
}

// Notifier writes entries to the admin notification feed.
type Notifier interface {
	Create(ctx context.Context, in notification.CreateInput) (*notification.Notification, error)
}

// Mailer sends the order related emails.
type Mailer interface {
	NotifyAdminOrder(ctx context.Context, order email.OrderSummary) error
	SendOrderConfirmation(ctx context.Context, to email.Recipient, order email.OrderSummary) (*email.Email, error)
	SendShippingUpdate(ctx context.Context, to email.Recipient, orderNumber, trackingNumber string) (*email.Email, error)
}

// Service contains business logic for orders. Notifications and emails are
// side effects: their failures are logged and never fail the order call.
type Service struct {
	store     Store
	customers Customers
	notifier  Notifier
	mailer    Mailer
	log       *zap.Logger
}

// NewService creates a new order Service.
func NewService(store Store, customers Customers, notifier Notifier, mailer Mailer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, customers: customers, notifier: notifier, mailer: mailer, log: log}
}

// Create validates, prices and stores an order, then announces it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	o, err := NewOrder(in)
	if err != nil {
		return nil, err
	}
	c, err := s.customers.Get(ctx, o.CustomerID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Validation("customer not found")
	}
	if err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, o)
	if errors.Is(err, ErrUnknownCustomer) {
		return nil, apperr.Validation("customer not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to create order")
	}

	s.log.Info("order placed", zap.String("order_number", created.OrderNumber), zap.Float64("total", created.TotalAmount))
	s.announcePlaced(ctx, created, c)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to get order")
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid order status %q", f.Status)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperr.Validation("to must not be before from")
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list orders")
	}
	return out, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.List(ctx, ListFilter{CustomerID: customerID})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := o.Apply(in)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, next)
}

// UpdateStatus moves an order through its status machine and announces the change.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, trackingNumber string) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := o.Transition(status, trackingNumber)
	if err != nil {
		return nil, err
	}
	updated, err := s.save(ctx, next)
	if err != nil {
		return nil, err
	}
	s.announceStatus(ctx, updated, o.Status)
	return updated, nil
}

// SetPaymentStatus records the payment state of an order.
func (s *Service) SetPaymentStatus(ctx context.Context, id string, status PaymentStatus) (*Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("payment status must be one of: pending, paid, failed")
	}
	o, err := s.store.UpdatePaymentStatus(ctx, id, status)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update payment status")
	}
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("order not found")
	}
	if err != nil {
		return apperr.Internal(err, "failed to delete order")
	}
	return nil
}

func (s *Service) save(ctx context.Context, o Order) (*Order, error) {
	updated, err := s.store.Update(ctx, o)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update order")
	}
	return updated, nil
}

func (s *Service) announcePlaced(ctx context.Context, o *Order, c *customer.Customer) {
	s.notify(ctx, notification.CreateInput{
		Type:     notification.TypeOrderPlaced,
		Title:    "New order",
		Message:  fmt.Sprintf("Order %s placed by %s for $%.2f", o.OrderNumber, c.Name, o.TotalAmount),
		Priority: notification.PriorityHigh,
		Data: map[string]any{
			"orderId":       o.ID,
			"orderNumber":   o.OrderNumber,
			"customerName":  c.Name,
			"customerEmail": c.Email,
		},
	})

	summary := summarize(o, c)
	if err := s.mailer.NotifyAdminOrder(ctx, summary); err != nil {
		s.log.Error("admin order email failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
	if _, err := s.mailer.SendOrderConfirmation(ctx, email.Recipient{Email: c.Email, Name: c.Name}, summary); err != nil {
		s.log.Error("order confirmation email failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

func (s *Service) announceStatus(ctx context.Context, o *Order, old Status) {
	c, err := s.customers.Get(ctx, o.CustomerID)
	if err != nil {
		s.log.Warn("customer lookup failed for status notification", zap.String("order_number", o.OrderNumber), zap.Error(err))
		c = &customer.Customer{ID: o.CustomerID}
	}

	priority := notification.PriorityMedium
	if o.Status == StatusCancelled {
		priority = notification.PriorityHigh
	}
	s.notify(ctx, notification.CreateInput{
		Type:     notification.TypeOrderStatusChanged,
		Title:    "Order status changed",
		Message:  fmt.Sprintf("Order %s changed from %s to %s", o.OrderNumber, old, o.Status),
		Priority: priority,
		Data: map[string]any{
			"orderId":       o.ID,
			"orderNumber":   o.OrderNumber,
			"oldStatus":     string(old),
			"newStatus":     string(o.Status),
			"customerName":  c.Name,
			"customerEmail": c.Email,
		},
	})

	if o.Status != StatusShipped || o.TrackingNumber == "" {
		return
	}
	s.notify(ctx, notification.CreateInput{
		Type:     notification.TypeShippingUpdate,
		Title:    "Order shipped",
		Message:  fmt.Sprintf("Order %s shipped with tracking number %s", o.OrderNumber, o.TrackingNumber),
		Priority: notification.PriorityLow,
		Data: map[string]any{
			"orderId":        o.ID,
			"orderNumber":    o.OrderNumber,
			"trackingNumber": o.TrackingNumber,
		},
	})
	if c.Email == "" {
		return
	}
	if _, err := s.mailer.SendShippingUpdate(ctx, email.Recipient{Email: c.Email, Name: c.Name}, o.OrderNumber, o.TrackingNumber); err != nil {
		s.log.Error("shipping update email failed", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, in notification.CreateInput) {
	if _, err := s.notifier.Create(ctx, in); err != nil {
		s.log.Error("notification failed", zap.String("type", string(in.Type)), zap.Error(err))
	}
}

func summarize(o *Order, c *customer.Customer) email.OrderSummary {
	items := make([]email.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, email.LineItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return email.OrderSummary{
		OrderNumber:   o.OrderNumber,
		CustomerName:  c.Name,
		CustomerEmail: c.Email,
		Items:         items,
		Subtotal:      o.Subtotal,
		ShippingCost:  o.ShippingCost,
		Tax:           o.Tax,
		Total:         o.TotalAmount,
		PlacedAt:      o.CreatedAt,
	}
}
