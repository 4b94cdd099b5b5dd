// Package repository persists asynchronous allocation jobs.
package repository

import (
	"context"

	"github.com/okian/placement/internal/domain/types"
)

// Store provides read/write access to allocation jobs.
//
// Jobs move pending -> running -> done|failed; a pending job may also fail
// directly. Any other transition returns ErrInvalidTransition.
type Store interface {
	// Create records a new pending job. Returns ErrAlreadyExists for a
	// duplicate id.
	Create(ctx context.Context, id string) (types.Job, error)

	// Get returns the job. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (types.Job, error)

	// MarkRunning moves a pending job to running.
	MarkRunning(ctx context.Context, id string) error

	// Complete stores the result of a running job.
	Complete(ctx context.Context, id string, result types.OptimizeResponse) error

	// Fail records why a pending or running job did not finish.
	Fail(ctx context.Context, id string, reason string) error

	// Count returns the number of jobs per status.
	Count(ctx context.Context) (map[types.JobStatus]int, error)

	// Close releases resources held by the store.
	Close() error
}

// allowed lists the statuses a job may leave for each target status.
var allowed = map[types.JobStatus][]types.JobStatus{ //nolint:gochecknoglobals // static transition table
	types.JobRunning: {types.JobPending},
	types.JobDone:    {types.JobRunning},
	types.JobFailed:  {types.JobPending, types.JobRunning},
}

func canTransition(from, to types.JobStatus) bool {
	for _, s := range allowed[to] {
		if s == from {
			return true
		}
	}
	return false
}
