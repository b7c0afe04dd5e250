package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrUnknownCustomer is returned when the referenced customer does not exist.
	ErrUnknownCustomer = errors.New("customer does not exist")
)

const orderColumns = `id, order_number, customer_id, items, shipping_address, shipping_method,
	subtotal, shipping_cost, tax, total_amount, status, payment_status,
	COALESCE(tracking_number, ''), COALESCE(notes, ''), created_at, updated_at`

// Repository handles order persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts o and assigns the next order number.
func (r *Repository) Create(ctx context.Context, o Order) (*Order, error) {
	return r.write(r.db.QueryRow(ctx,
		`INSERT INTO orders (order_number, customer_id, items, shipping_address, shipping_method,
		                     subtotal, shipping_cost, tax, total_amount, status, payment_status, notes)
		 VALUES ('ORD' || LPAD(nextval('order_number_seq')::text, 6, '0'),
		         $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''))
		 RETURNING `+orderColumns,
		o.CustomerID, o.Items, o.ShippingAddress, string(o.ShippingMethod),
		o.Subtotal, o.ShippingCost, o.Tax, o.TotalAmount, string(o.Status), string(o.PaymentStatus), o.Notes,
	), "create order", ErrUnknownCustomer)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Order, error) {
	o, err := scan(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// List returns the orders matching f, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR customer_id::text = $2)
		   AND ($3::timestamptz IS NULL OR created_at >= $3)
		   AND ($4::timestamptz IS NULL OR created_at <= $4)
		 ORDER BY created_at DESC`,
		string(f.Status), f.CustomerID, f.From, f.To,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

// Update writes the mutable fields of o.
func (r *Repository) Update(ctx context.Context, o Order) (*Order, error) {
	return r.write(r.db.QueryRow(ctx,
		`UPDATE orders
		 SET shipping_address = $2, shipping_method = $3, subtotal = $4, shipping_cost = $5,
		     tax = $6, total_amount = $7, status = $8, payment_status = $9,
		     tracking_number = NULLIF($10, ''), notes = NULLIF($11, ''), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		o.ID, o.ShippingAddress, string(o.ShippingMethod), o.Subtotal, o.ShippingCost,
		o.Tax, o.TotalAmount, string(o.Status), string(o.PaymentStatus), o.TrackingNumber, o.Notes,
	), "update order", ErrNotFound)
}

// UpdatePaymentStatus changes only the payment status.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) (*Order, error) {
	return r.write(r.db.QueryRow(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+orderColumns,
		id, string(status),
	), "update order payment status", ErrNotFound)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if db.IsInvalidInput(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// write scans a RETURNING row. A malformed uuid maps to badID: the customer on
// insert, the order itself on update.
func (r *Repository) write(row pgx.Row, op string, badID error) (*Order, error) {
	o, err := scan(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case db.IsForeignKeyViolation(err):
		return nil, ErrUnknownCustomer
	case db.IsInvalidInput(err):
		return nil, badID
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func scan(row pgx.Row) (*Order, error) {
	o := &Order{}
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Items, &o.ShippingAddress, &o.ShippingMethod,
		&o.Subtotal, &o.ShippingCost, &o.Tax, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.TrackingNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}
