// Package cleanup persists object keys whose deletion failed and retries them
// on a schedule until they are gone or the attempt ceiling is reached.
package cleanup

import "time"

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic processing happens in s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MaxAttempts is the number of passes after which a task is marked failed.
const MaxAttempts = 5

// ClaimLease is how long a task may stay in_progress before another pass may
// claim it again.
const ClaimLease = time.Hour

// Task records the object keys of one resource that still need deleting.
type Task struct {
	ID           string     `json:"id"`
	ResourceType string     `json:"resourceType"`
	ResourceID   string     `json:"resourceId"`
	FileKeys     []string   `json:"fileKeys"`
	Attempts     int        `json:"attempts"`
	LastAttempt  *time.Time `json:"lastAttempt,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Stats counts tasks by status.
type Stats struct {
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// Result summarises one processing pass.
type Result struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
