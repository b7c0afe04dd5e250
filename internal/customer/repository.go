package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

var (
	ErrNotFound   = errors.New("customer not found")
	ErrEmailTaken = errors.New("email already in use")
	ErrInUse      = errors.New("customer has orders")
)

const customerColumns = `id, name, email, COALESCE(phone, ''), created_at, updated_at`

// Repository handles customer persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c Customer) (*Customer, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone) VALUES ($1, $2, NULLIF($3, ''))
		 RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone,
	)
	return write(row, "create customer")
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Customer, error) {
	c, err := scan(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List returns customers newest first, optionally matching search on name or email.
func (r *Repository) List(ctx context.Context, search string) ([]Customer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC`,
		search,
	)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, c Customer) (*Customer, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE customers SET name = $2, email = $3, phone = NULLIF($4, ''), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Email, c.Phone,
	)
	return write(row, "update customer")
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	switch {
	case db.IsInvalidInput(err):
		return ErrNotFound
	case db.IsForeignKeyViolation(err):
		return ErrInUse
	case err != nil:
		return fmt.Errorf("delete customer: %w", err)
	case tag.RowsAffected() == 0:
		return ErrNotFound
	}
	return nil
}

func write(row pgx.Row, op string) (*Customer, error) {
	c, err := scan(row)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows), db.IsInvalidInput(err):
		return nil, ErrNotFound
	case db.IsUniqueViolation(err):
		return nil, ErrEmailTaken
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

func scan(row pgx.Row) (*Customer, error) {
	c := &Customer{}
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
