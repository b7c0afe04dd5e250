// Package dashboard serves the reporting aggregates of the admin dashboard.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats are the headline counters. Revenue counts delivered orders only.
type Stats struct {
	TotalOrders    int     `json:"totalOrders"    example:"120"`
	TotalProducts  int     `json:"totalProducts"  example:"45"`
	TotalCustomers int     `json:"totalCustomers" example:"80"`
	TotalRevenue   float64 `json:"totalRevenue"   example:"5230.75"`
}

// RecentOrder is an order row with its customer's contact.
type RecentOrder struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	TotalAmount   float64   `json:"totalAmount"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TopProduct is a product ranked by units sold.
type TopProduct struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	TotalSold    int     `json:"totalSold"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// DailySales is the delivered revenue of one UTC day.
type DailySales struct {
	Date       string  `json:"date"       example:"2024-05-01"`
	TotalSales float64 `json:"totalSales" example:"310.40"`
	OrderCount int     `json:"orderCount" example:"7"`
}

// Repository runs the dashboard aggregate queries.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	err := r.db.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM orders),
		   (SELECT COUNT(*) FROM products),
		   (SELECT COUNT(*) FROM customers),
		   (SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = 'delivered')`,
	).Scan(&s.TotalOrders, &s.TotalProducts, &s.TotalCustomers, &s.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return s, nil
}

func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT o.id, o.order_number, o.total_amount, o.status, c.name, c.email, o.created_at
		 FROM orders o
		 JOIN customers c ON c.id = o.customer_id
		 ORDER BY o.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()

	out := []RecentOrder{}
	for rows.Next() {
		var o RecentOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.TotalAmount, &o.Status, &o.CustomerName, &o.CustomerEmail, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// TopProducts ranks products by quantity across non-cancelled orders.
func (r *Repository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	rows, err := r.db.Query(ctx,
		`SELECT item->>'productId',
		        MAX(item->>'name'),
		        SUM((item->>'quantity')::int),
		        SUM((item->>'price')::float8 * (item->>'quantity')::int)
		 FROM orders, jsonb_array_elements(items) AS item
		 WHERE status <> 'cancelled'
		 GROUP BY item->>'productId'
		 ORDER BY 3 DESC, 4 DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	out := []TopProduct{}
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.TotalSold, &p.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SalesByDay groups delivered orders created in [from, to) by UTC day.
func (r *Repository) SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	rows, err := r.db.Query(ctx,
		`SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		        SUM(total_amount),
		        COUNT(*)
		 FROM orders
		 WHERE status = 'delivered' AND created_at >= $1 AND created_at < $2
		 GROUP BY day
		 ORDER BY day`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("sales analytics: %w", err)
	}
	defer rows.Close()

	out := []DailySales{}
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Date, &d.TotalSales, &d.OrderCount); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
