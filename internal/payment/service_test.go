package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/notification"
	"github.com/storefront/admin/internal/order"
)

type memStore struct {
	mu       sync.Mutex
	seq      int
	payments map[string]*Payment
}

func newMemStore() *memStore {
	return &memStore{payments: map[string]*Payment{}}
}

func (s *memStore) Create(ctx context.Context, p Payment) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.ID = fmt.Sprintf("pay%d", s.seq)
	s.payments[p.ID] = &p
	out := p
	return &out, nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *memStore) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	return s.filter(func(p *Payment) bool { return p.OrderID == orderID }), nil
}

func (s *memStore) ListByCustomer(ctx context.Context, customerID string) ([]Payment, error) {
	return s.filter(func(p *Payment) bool { return p.CustomerID == customerID }), nil
}

func (s *memStore) filter(keep func(*Payment) bool) []Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Payment{}
	for _, p := range s.payments {
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

func (s *memStore) Update(ctx context.Context, p Payment) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		return nil, ErrNotFound
	}
	s.payments[p.ID] = &p
	out := p
	return &out, nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[id]; !ok {
		return ErrNotFound
	}
	delete(s.payments, id)
	return nil
}

type fakeOrders struct {
	mu       sync.Mutex
	orders   map[string]order.Order
	mirrored []order.PaymentStatus
}

func (f *fakeOrders) Get(ctx context.Context, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	return &o, nil
}

func (f *fakeOrders) SetPaymentStatus(ctx context.Context, id string, status order.PaymentStatus) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mirrored = append(f.mirrored, status)
	o := f.orders[id]
	o.PaymentStatus = status
	return &o, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	items []notification.CreateInput
}

func (n *fakeNotifier) Create(ctx context.Context, in notification.CreateInput) (*notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, in)
	return &notification.Notification{}, nil
}

func newTestService() (*Service, *fakeOrders, *fakeNotifier) {
	orders := &fakeOrders{orders: map[string]order.Order{"o1": {ID: "o1", CustomerID: "c1"}}}
	notifier := &fakeNotifier{}
	svc := NewService(newMemStore(), orders, notifier, nil)
	svc.newTxnID = func() string { return "txn_test" }
	return svc, orders, notifier
}

func TestCreateDefaults(t *testing.T) {
	svc, _, _ := newTestService()
	p, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Amount: 27.59, Method: MethodStripe})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Currency != "USD" || p.CustomerID != "c1" || p.Status != StatusPending {
		t.Fatalf("unexpected payment %+v", p)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	cases := []CreateInput{
		{OrderID: "o1", Amount: 0, Method: MethodStripe},
		{OrderID: "o1", Amount: 10, Method: "cash"},
		{OrderID: "missing", Amount: 10, Method: MethodPayPal},
		{OrderID: "o1", CustomerID: "someone-else", Amount: 10, Method: MethodPayPal},
		{OrderID: "o1", Amount: 10, Currency: "EURO", Method: MethodPayPal},
	}
	for i, in := range cases {
		if _, err := svc.Create(context.Background(), in); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestProcessAndRefund(t *testing.T) {
	svc, orders, notifier := newTestService()
	p, _ := svc.Create(context.Background(), CreateInput{OrderID: "o1", Amount: 10, Method: MethodCreditCard})

	if _, err := svc.Refund(context.Background(), p.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected refund of pending payment to fail, got %v", err)
	}

	done, err := svc.Process(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.Status != StatusCompleted || done.TransactionID != "txn_test" {
		t.Fatalf("unexpected processed payment %+v", done)
	}
	if _, err := svc.Process(context.Background(), p.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected second process to fail, got %v", err)
	}

	refunded, err := svc.Refund(context.Background(), p.ID)
	if err != nil || refunded.Status != StatusRefunded {
		t.Fatalf("expected refunded, got %+v (%v)", refunded, err)
	}

	if len(notifier.items) != 2 {
		t.Fatalf("expected 2 payment notifications, got %d", len(notifier.items))
	}
	for _, n := range notifier.items {
		if n.Type != notification.TypePaymentStatus {
			t.Fatalf("unexpected notification type %s", n.Type)
		}
	}
	if len(orders.mirrored) != 1 || orders.mirrored[0] != order.PaymentPaid {
		t.Fatalf("expected order marked paid once, got %v", orders.mirrored)
	}
}

func TestProcessFailedPayment(t *testing.T) {
	svc, orders, _ := newTestService()
	p, _ := svc.Create(context.Background(), CreateInput{OrderID: "o1", Amount: 10, Method: MethodPayPal})

	failed := StatusFailed
	msg := "card declined"
	if _, err := svc.Update(context.Background(), p.ID, UpdateInput{Status: &failed, ErrorMessage: &msg}); err != nil {
		t.Fatalf("update: %v", err)
	}
	done, err := svc.Process(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", done.ErrorMessage)
	}
	want := []order.PaymentStatus{order.PaymentFailed, order.PaymentPaid}
	if len(orders.mirrored) != 2 || orders.mirrored[0] != want[0] || orders.mirrored[1] != want[1] {
		t.Fatalf("expected %v mirrored, got %v", want, orders.mirrored)
	}
}

func TestProcessHandler(t *testing.T) {
	svc, _, _ := newTestService()
	p, _ := svc.Create(context.Background(), CreateInput{OrderID: "o1", Amount: 10, Method: MethodPayPal})

	r := chi.NewRouter()
	NewHandler(svc, nil).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+p.ID+"/process", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"completed"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/missing/refund", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
