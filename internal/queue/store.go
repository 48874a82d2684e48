package queue

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a job id has no stored row.
var ErrNotFound = errors.New("job not found")

// Store persists job status. Implementations must support safe concurrent
// upsert keyed by job id with set-if-provided partial updates.
type Store interface {
	// Create inserts a new job row. The job's timestamps are set by the
	// store.
	Create(ctx context.Context, job *Job) error
	// Get returns the job with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)
	// Update applies the non-nil fields of the update and returns the
	// resulting row.
	Update(ctx context.Context, id string, update JobUpdate) (*Job, error)
	// List returns all jobs, newest first.
	List(ctx context.Context) ([]*Job, error)
	// Health aggregates job counts per lifecycle state.
	Health(ctx context.Context) (HealthSummary, error)
	// DeleteTerminalBefore removes completed and failed jobs last updated
	// before the cutoff, returning how many rows were removed.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
	// Close releases store resources.
	Close() error
}
