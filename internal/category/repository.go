package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrAlreadyExists = errors.New("category already exists")
	ErrInvalidParent = errors.New("parent category does not exist")
)

const categoryColumns = `id, name, COALESCE(description, ''), slug, parent_id, is_active, created_at, updated_at`

// Repository handles category persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c Category) (*Category, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO categories (name, description, slug, parent_id, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+categoryColumns,
		c.Name, c.Description, c.Slug, c.ParentID, c.IsActive,
	)
	return r.write(row, "create category")
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// List returns categories ordered by name, optionally only active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE (NOT $1 OR is_active) ORDER BY name`,
		activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, c Category) (*Category, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE categories
		 SET name = $2, description = $3, slug = $4, parent_id = $5, is_active = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+categoryColumns,
		c.ID, c.Name, c.Description, c.Slug, c.ParentID, c.IsActive,
	)
	return r.write(row, "update category")
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if db.IsInvalidInput(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) write(row pgx.Row, op string) (*Category, error) {
	c, err := scanCategory(row)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case db.IsUniqueViolation(err):
		return nil, ErrAlreadyExists
	case db.IsForeignKeyViolation(err), db.IsInvalidInput(err):
		return nil, ErrInvalidParent
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

func scanCategory(row pgx.Row) (*Category, error) {
	c := &Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Slug, &c.ParentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
