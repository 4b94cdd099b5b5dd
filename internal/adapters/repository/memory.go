package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/placement/internal/domain/types"
)

// MemoryStore keeps jobs in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]types.Job
	cfg  settings
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{jobs: make(map[string]types.Job), cfg: cfg}
}

// Create records a new pending job.
func (s *MemoryStore) Create(_ context.Context, id string) (types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; ok {
		return types.Job{}, fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}
	now := s.cfg.now()
	job := types.Job{ID: id, Status: types.JobPending, CreatedAt: now, UpdatedAt: now}
	s.jobs[id] = job
	return job, nil
}

// Get returns the job with id.
func (s *MemoryStore) Get(_ context.Context, id string) (types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return types.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneJob(job), nil
}

// MarkRunning moves a pending job to running.
func (s *MemoryStore) MarkRunning(_ context.Context, id string) error {
	return s.transition(id, types.JobRunning, func(*types.Job) {})
}

// Complete stores the result of a running job.
func (s *MemoryStore) Complete(_ context.Context, id string, result types.OptimizeResponse) error {
	return s.transition(id, types.JobDone, func(j *types.Job) {
		j.Result = cloneResult(&result)
	})
}

// Fail records why a job did not finish.
func (s *MemoryStore) Fail(_ context.Context, id, reason string) error {
	return s.transition(id, types.JobFailed, func(j *types.Job) {
		j.Error = reason
	})
}

func (s *MemoryStore) transition(id string, to types.JobStatus, apply func(*types.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !canTransition(job.Status, to) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, id, job.Status, to)
	}
	job.Status = to
	job.UpdatedAt = s.cfg.now()
	apply(&job)
	s.jobs[id] = job
	return nil
}

// Count returns the number of jobs per status.
func (s *MemoryStore) Count(_ context.Context) (map[types.JobStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[types.JobStatus]int, 4)
	for _, j := range s.jobs {
		out[j.Status]++
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func cloneJob(j types.Job) types.Job {
	j.Result = cloneResult(j.Result)
	return j
}

func cloneResult(r *types.OptimizeResponse) *types.OptimizeResponse {
	if r == nil {
		return nil
	}
	out := *r
	out.Allocation = make(map[string]string, len(r.Allocation))
	for k, v := range r.Allocation {
		out.Allocation[k] = v
	}
	return &out
}
