// Package worker runs queued allocation jobs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/placement/internal/adapters/mq/queue"
	"github.com/okian/placement/internal/domain/matching"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/logger"
	"github.com/okian/placement/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultJobTimeout   = time.Minute
	poolShutdownTimeout = 30 * time.Second
)

// Allocator runs one allocation.
type Allocator interface {
	Allocate(ctx context.Context, candidates []model.Candidate, opportunities []model.Opportunity, equityBoost bool) (model.Allocation, error)
}

// JobUpdater records job progress.
type JobUpdater interface {
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result types.OptimizeResponse) error
	Fail(ctx context.Context, id string, reason string) error
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes tasks until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker pulls allocation tasks off the queue and records outcomes.
type InMemoryWorker struct {
	queue      Queue
	allocator  Allocator
	jobs       JobUpdater
	name       string
	jobTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, allocator Allocator, jobs JobUpdater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		allocator:  allocator,
		jobs:       jobs,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Error(ctx, "allocation job failed",
					logger.String("job_id", t.JobID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one task. A failed allocation is recorded on the job and
// also returned for logging.
func (w *InMemoryWorker) process(ctx context.Context, t queue.Task) error { //nolint:gocritic // hugeParam: Task is passed by value for channel semantics
	if err := w.jobs.MarkRunning(ctx, t.JobID); err != nil {
		metrics.RecordErrorByComponent("worker", "job_store")
		return fmt.Errorf("mark running: %w", err)
	}
	metrics.RecordJob(string(types.JobRunning))

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	allocation, err := w.allocator.Allocate(jobCtx, t.Candidates, t.Opportunities, t.EquityBoost)
	if err != nil {
		metrics.RecordJob(string(types.JobFailed))
		metrics.RecordErrorByComponent("worker", "allocation")
		// The job context may be done; record the failure on the parent.
		if ferr := w.jobs.Fail(ctx, t.JobID, err.Error()); ferr != nil {
			return fmt.Errorf("allocate: %w (record failure: %w)", err, ferr)
		}
		return fmt.Errorf("allocate: %w", err)
	}

	summary := matching.Summarize(allocation, len(t.Candidates))
	result := types.OptimizeResponse{
		Allocation:     allocation,
		TotalAllocated: summary.Allocated,
		TotalStudents:  summary.TotalCandidates,
		AllocationRate: summary.AllocationRate,
	}
	if err := w.jobs.Complete(ctx, t.JobID, result); err != nil {
		metrics.RecordErrorByComponent("worker", "job_store")
		return fmt.Errorf("complete: %w", err)
	}
	metrics.RecordJob(string(types.JobDone))
	w.logger.Info(ctx, "allocation job done",
		logger.String("job_id", t.JobID),
		logger.Int("allocated", summary.Allocated),
		logger.Int("candidates", summary.TotalCandidates),
		logger.Duration("queued_for", time.Since(t.SubmittedAt)))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker.
func NewPool(workerCount int, q Queue, allocator Allocator, jobs JobUpdater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, allocator, jobs, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
