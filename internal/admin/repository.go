package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

var (
	// ErrNotFound is returned when an admin does not exist.
	ErrNotFound = errors.New("admin not found")
	// ErrEmailTaken is returned when the email belongs to another admin.
	ErrEmailTaken = errors.New("email already in use")
)

const adminColumns = `id, name, email, password_hash, role, permissions, is_active, last_login, created_at, updated_at`

// Repository handles admin persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new admin with an already hashed password.
func (r *Repository) Create(ctx context.Context, a *Admin) (*Admin, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO admins (name, email, password_hash, role, permissions, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+adminColumns,
		a.Name, a.Email, a.passwordHash, a.Role, a.Permissions, a.IsActive,
	)
	created, err := scanAdmin(row)
	if db.IsUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return created, nil
}

// GetByID fetches an admin by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

// GetByEmail fetches an admin by email, case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE LOWER(email) = LOWER($1)`, email)
}

// List returns admins matching f, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Admin, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+adminColumns+` FROM admins
		 WHERE ($1 = '' OR role = $1) AND ($2::boolean IS NULL OR is_active = $2)
		 ORDER BY created_at DESC`,
		string(f.Role), f.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	admins := []Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return admins, nil
}

// CountByRole counts admins holding role.
func (r *Repository) CountByRole(ctx context.Context, role Role) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins WHERE role = $1`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// CountOtherActive counts active admins holding role, excluding excludeID.
func (r *Repository) CountOtherActive(ctx context.Context, role Role, excludeID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM admins WHERE role = $1 AND is_active AND id <> $2`,
		role, excludeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// Update writes every mutable column of a.
func (r *Repository) Update(ctx context.Context, a *Admin) (*Admin, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE admins
		 SET name = $2, email = $3, password_hash = $4, role = $5, permissions = $6, is_active = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+adminColumns,
		a.ID, a.Name, a.Email, a.passwordHash, a.Role, a.Permissions, a.IsActive,
	)
	updated, err := scanAdmin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update admin: %w", err)
	}
	return updated, nil
}

// TouchLastLogin sets last_login to now.
func (r *Repository) TouchLastLogin(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `UPDATE admins SET last_login = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Delete removes an admin.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if db.IsInvalidInput(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*Admin, error) {
	a, err := scanAdmin(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	a := &Admin{}
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.passwordHash, &a.Role, &a.Permissions,
		&a.IsActive, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Permissions == nil {
		a.Permissions = []string{}
	}
	return a, nil
}
