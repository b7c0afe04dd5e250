package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

var (
	// ErrNotFound is returned when a payment does not exist.
	ErrNotFound = errors.New("payment not found")
	// ErrInvalidReference is returned when the order or customer does not exist.
	ErrInvalidReference = errors.New("order or customer does not exist")
)

const paymentColumns = `id, order_id, customer_id, amount, currency, method, status,
	COALESCE(transaction_id, ''), COALESCE(error_message, ''), created_at, updated_at`

// Repository handles payment persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p Payment) (*Payment, error) {
	created, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO payments (order_id, customer_id, amount, currency, method, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+paymentColumns,
		p.OrderID, p.CustomerID, p.Amount, p.Currency, string(p.Method), string(p.Status),
	))
	if db.IsForeignKeyViolation(err) || db.IsInvalidInput(err) {
		return nil, ErrInvalidReference
	}
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Payment, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *Repository) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id::text = $1 ORDER BY created_at DESC`, orderID)
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE customer_id::text = $1 ORDER BY created_at DESC`, customerID)
}

func (r *Repository) list(ctx context.Context, query string, arg string) ([]Payment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []Payment{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, p Payment) (*Payment, error) {
	updated, err := scan(r.db.QueryRow(ctx,
		`UPDATE payments
		 SET status = $2, transaction_id = NULLIF($3, ''), error_message = NULLIF($4, ''), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+paymentColumns,
		p.ID, string(p.Status), p.TransactionID, p.ErrorMessage,
	))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if db.IsInvalidInput(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scan(row pgx.Row) (*Payment, error) {
	p := &Payment{}
	if err := row.Scan(&p.ID, &p.OrderID, &p.CustomerID, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&p.TransactionID, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}
