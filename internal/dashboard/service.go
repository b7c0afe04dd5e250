package dashboard

import (
	"context"
	"time"

	"github.com/storefront/admin/internal/apperr"
)

const listLimit = 10

// Store runs the aggregate queries.
type Store interface {
	Stats(ctx context.Context) (*Stats, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "error fetching dashboard statistics")
	}
	return st, nil
}

func (s *Service) RecentOrders(ctx context.Context) ([]RecentOrder, error) {
	out, err := s.store.RecentOrders(ctx, listLimit)
	if err != nil {
		return nil, apperr.Internal(err, "error fetching recent orders")
	}
	return out, nil
}

func (s *Service) TopProducts(ctx context.Context) ([]TopProduct, error) {
	out, err := s.store.TopProducts(ctx, listLimit)
	if err != nil {
		return nil, apperr.Internal(err, "error fetching top products")
	}
	return out, nil
}

// SalesAnalytics returns daily delivered sales between startDate and endDate,
// both inclusive. Dates are YYYY-MM-DD or RFC3339.
func (s *Service) SalesAnalytics(ctx context.Context, startDate, endDate string) ([]DailySales, error) {
	if startDate == "" || endDate == "" {
		return nil, apperr.Validation("startDate and endDate are required")
	}
	from, _, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	to, dateOnly, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	} else {
		to = to.Add(time.Nanosecond)
	}
	if !from.Before(to) {
		return nil, apperr.Validation("startDate must not be after endDate")
	}

	out, err := s.store.SalesByDay(ctx, from, to)
	if err != nil {
		return nil, apperr.Internal(err, "error fetching sales analytics")
	}
	return out, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, apperr.Validation("invalid date %q", v)
	}
	return t, false, nil
}
