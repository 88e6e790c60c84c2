// Package taskstore records the outcome of each submission task so that
// asynchronous callers can poll for completion. Entries are keyed by the
// task id issued at publish time and expire after the bucket TTL.
package taskstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a task id has no entry (never written or
// already expired).
var ErrNotFound = errors.New("task not found")

// State is the lifecycle state of a submission task.
type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// Success carries the outcome of a persisted match.
type Success struct {
	MatchID int64  `json:"match_id"`
	Action  string `json:"action"`
	// FallbackKey flags results matched by (teams, date) instead of the
	// external match id. Lower confidence.
	FallbackKey bool `json:"fallback_key,omitempty"`
}

// Failure carries a structured error reason.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TaskResult is the stored record for one submission.
type TaskResult struct {
	TaskID    string    `json:"task_id"`
	State     State     `json:"state"`
	Result    *Success  `json:"result,omitempty"`
	Error     *Failure  `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the task-outcome boundary shared by the producer (creates the
// pending entry) and the consumer (finalizes it).
type Store interface {
	// CreatePending writes the initial pending entry for a task.
	CreatePending(ctx context.Context, taskID string) error
	// MarkSuccess finalizes a task with the applied action.
	MarkSuccess(ctx context.Context, taskID string, result Success) error
	// MarkFailure finalizes a task with a structured reason.
	MarkFailure(ctx context.Context, taskID string, failure Failure) error
	// Get returns the current record for a task id.
	Get(ctx context.Context, taskID string) (*TaskResult, error)
}
