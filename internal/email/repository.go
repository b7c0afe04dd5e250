package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

// ErrNotFound is returned when an email record does not exist.
var ErrNotFound = errors.New("email not found")

const emailColumns = `id, type, sender, recipients, cc, bcc, subject, html, COALESCE(text, ''),
	priority, status, COALESCE(error_message, ''), sent_at, created_at, updated_at`

// Repository handles email persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, e Email) (*Email, error) {
	created, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO emails (type, sender, recipients, cc, bcc, subject, html, text, priority, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
		 RETURNING `+emailColumns,
		e.Type, e.From, e.To, e.Cc, e.Bcc, e.Subject, e.HTML, e.Text, e.Priority, e.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("create email: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Email, error) {
	e, err := scan(r.db.QueryRow(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get email: %w", err)
	}
	return e, nil
}

// List returns emails matching f, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Email, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+emailColumns+` FROM emails
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR type = $2)
		   AND ($3 = '' OR recipients @> jsonb_build_array(jsonb_build_object('email', $3::text)))
		 ORDER BY created_at DESC`,
		string(f.Status), string(f.Type), strings.ToLower(f.Recipient),
	)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	out := []Email{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emails: %w", err)
	}
	return out, nil
}

// SetStatus records a delivery outcome. sent_at is stamped when status is sent.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status, errorMessage string) (*Email, error) {
	e, err := scan(r.db.QueryRow(ctx,
		`UPDATE emails
		 SET status = $2,
		     error_message = NULLIF($3, ''),
		     sent_at = CASE WHEN $2 = 'sent' THEN NOW() ELSE sent_at END,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+emailColumns,
		id, string(status), errorMessage,
	))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update email status: %w", err)
	}
	return e, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM emails WHERE id = $1`, id)
	if db.IsInvalidInput(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByStatus removes every email with the given status and returns the count.
func (r *Repository) DeleteByStatus(ctx context.Context, status Status) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM emails WHERE status = $1`, string(status))
	if err != nil {
		return 0, fmt.Errorf("delete emails by status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scan(row pgx.Row) (*Email, error) {
	e := &Email{}
	if err := row.Scan(&e.ID, &e.Type, &e.From, &e.To, &e.Cc, &e.Bcc, &e.Subject, &e.HTML, &e.Text,
		&e.Priority, &e.Status, &e.ErrorMessage, &e.SentAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}
