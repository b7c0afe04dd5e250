package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

// ErrNotFound is returned when a notification does not exist.
var ErrNotFound = errors.New("notification not found")

const notificationColumns = `id, type, title, message, priority, data, read, read_at, created_at, updated_at`

// Repository handles notification persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, n Notification) (*Notification, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO notifications (type, title, message, priority, data)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+notificationColumns,
		n.Type, n.Title, n.Message, n.Priority, n.Data,
	)
	created, err := scan(row)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return created, nil
}

// List returns the newest notifications first.
func (r *Repository) List(ctx context.Context, limit int, unreadOnly bool) ([]Notification, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE (NOT $2 OR NOT read)
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit, unreadOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *Repository) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT read`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read. Already read notifications keep their read_at.
func (r *Repository) MarkRead(ctx context.Context, id string) (*Notification, error) {
	n, err := scan(r.db.QueryRow(ctx,
		`UPDATE notifications
		 SET read = TRUE, read_at = COALESCE(read_at, NOW()), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+notificationColumns,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification read and returns how many changed.
func (r *Repository) MarkAllRead(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE, read_at = NOW(), updated_at = NOW() WHERE NOT read`)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if db.IsInvalidInput(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scan(row pgx.Row) (*Notification, error) {
	n := &Notification{}
	if err := row.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Priority, &n.Data,
		&n.Read, &n.ReadAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	return n, nil
}
