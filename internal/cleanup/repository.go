package cleanup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/admin/internal/db"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("cleanup task not found")

const taskColumns = `id, resource_type, resource_id, file_keys, attempts, last_attempt, status, created_at, updated_at`

// Repository handles cleanup task persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending task.
func (r *Repository) Create(ctx context.Context, resourceType, resourceID string, fileKeys []string) (*Task, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO cleanup_tasks (resource_type, resource_id, file_keys)
		 VALUES ($1, $2, $3)
		 RETURNING `+taskColumns,
		resourceType, resourceID, fileKeys,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("create cleanup task: %w", err)
	}
	return t, nil
}

// Claim atomically moves up to limit pending tasks to in_progress, bumping their
// attempt counter. Rows locked by a concurrent claimer are skipped, so two
// overlapping passes never process the same task. Tasks left in_progress for
// longer than ClaimLease are claimed again.
func (r *Repository) Claim(ctx context.Context, limit int) ([]Task, error) {
	rows, err := r.db.Query(ctx,
		`WITH picked AS (
		     SELECT id FROM cleanup_tasks
		     WHERE status = 'pending'
		        OR (status = 'in_progress' AND last_attempt < NOW() - $2::int * INTERVAL '1 second')
		     ORDER BY attempts ASC, created_at ASC
		     LIMIT $1
		     FOR UPDATE SKIP LOCKED
		 )
		 UPDATE cleanup_tasks t
		 SET status = 'in_progress', attempts = t.attempts + 1, last_attempt = NOW(), updated_at = NOW()
		 FROM picked
		 WHERE t.id = picked.id
		 RETURNING t.id, t.resource_type, t.resource_id, t.file_keys, t.attempts, t.last_attempt, t.status, t.created_at, t.updated_at`,
		limit, int(ClaimLease.Seconds()),
	)
	if err != nil {
		return nil, fmt.Errorf("claim cleanup tasks: %w", err)
	}
	return collectTasks(rows)
}

// Finish stores the outcome of a pass: remaining keys and the next status.
func (r *Repository) Finish(ctx context.Context, id string, status Status, remaining []string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cleanup_tasks SET status = $2, file_keys = $3, updated_at = NOW()
		 WHERE id = $1`,
		id, status, remaining,
	)
	if err != nil {
		return fmt.Errorf("finish cleanup task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Release returns a claimed task to pending with remaining keys and gives back
// the attempt its claim consumed.
func (r *Repository) Release(ctx context.Context, id string, remaining []string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cleanup_tasks
		 SET status = 'pending', file_keys = $2, attempts = GREATEST(attempts - 1, 0), updated_at = NOW()
		 WHERE id = $1`,
		id, remaining,
	)
	if err != nil {
		return fmt.Errorf("release cleanup task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a task.
func (r *Repository) GetByID(ctx context.Context, id string) (*Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM cleanup_tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cleanup task: %w", err)
	}
	return t, nil
}

// List returns tasks, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status Status, limit int) ([]Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM cleanup_tasks
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list cleanup tasks: %w", err)
	}
	return collectTasks(rows)
}

// Stats counts tasks per status.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx,
		`SELECT
		     COUNT(*) FILTER (WHERE status = 'pending'),
		     COUNT(*) FILTER (WHERE status = 'in_progress'),
		     COUNT(*) FILTER (WHERE status = 'completed'),
		     COUNT(*) FILTER (WHERE status = 'failed'),
		     COUNT(*)
		 FROM cleanup_tasks`,
	).Scan(&s.Pending, &s.InProgress, &s.Completed, &s.Failed, &s.Total)
	if err != nil {
		return Stats{}, fmt.Errorf("cleanup stats: %w", err)
	}
	return s, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	err := row.Scan(&t.ID, &t.ResourceType, &t.ResourceID, &t.FileKeys, &t.Attempts,
		&t.LastAttempt, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func collectTasks(rows pgx.Rows) ([]Task, error) {
	defer rows.Close()
	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cleanup task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cleanup tasks: %w", err)
	}
	return tasks, nil
}
