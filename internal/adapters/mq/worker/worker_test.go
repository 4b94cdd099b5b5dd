package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/placement/internal/adapters/mq/queue"
	"github.com/okian/placement/internal/adapters/mq/worker"
	"github.com/okian/placement/internal/adapters/repository"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	tasks chan queue.Task
	once  sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{tasks: make(chan queue.Task, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Task {
	return mq.tasks
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.tasks) })
	return nil
}

type mockAllocator struct {
	mu     sync.Mutex
	calls  int
	err    error
	block  bool
	result model.Allocation
}

func (m *mockAllocator) Allocate(ctx context.Context, candidates []model.Candidate, _ []model.Opportunity, _ bool) (model.Allocation, error) {
	m.mu.Lock()
	m.calls++
	err, block, result := m.err, m.block, m.result
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = model.Allocation{}
		for _, c := range candidates {
			result[c.ID] = "I1"
			break
		}
	}
	return result, nil
}

func submit(t *testing.T, store repository.Store, q *mockQueue, id string, candidates ...string) {
	t.Helper()
	if _, err := store.Create(context.Background(), id); err != nil {
		t.Fatalf("create job: %v", err)
	}
	task := queue.Task{JobID: id, EquityBoost: true, SubmittedAt: time.Now()}
	for _, c := range candidates {
		task.Candidates = append(task.Candidates, model.Candidate{ID: c})
	}
	q.tasks <- task
}

func waitForStatus(store repository.Store, id string, want types.JobStatus) types.Job {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.Get(context.Background(), id)
	return job
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker with an in-memory job store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := newMockQueue()
		store := repository.NewMemoryStore()
		alloc := &mockAllocator{}

		w := worker.NewInMemoryWorker(q, alloc, store, worker.WithName("test-worker"), worker.WithJobTimeout(50*time.Millisecond))
		go w.Run(ctx)

		convey.Convey("When a job is allocated successfully", func() {
			submit(t, store, q, "job-1", "S1", "S2")
			job := waitForStatus(store, "job-1", types.JobDone)

			convey.Convey("Then the result and summary are stored", func() {
				convey.So(job.Status, convey.ShouldEqual, types.JobDone)
				convey.So(job.Result, convey.ShouldNotBeNil)
				convey.So(job.Result.TotalStudents, convey.ShouldEqual, 2)
				convey.So(job.Result.TotalAllocated, convey.ShouldEqual, 1)
				convey.So(job.Result.AllocationRate, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the allocator fails", func() {
			alloc.mu.Lock()
			alloc.err = errors.New("duplicate candidate id")
			alloc.mu.Unlock()
			submit(t, store, q, "job-2", "S1")
			job := waitForStatus(store, "job-2", types.JobFailed)

			convey.Convey("Then the job is marked failed with the reason", func() {
				convey.So(job.Status, convey.ShouldEqual, types.JobFailed)
				convey.So(job.Error, convey.ShouldContainSubstring, "duplicate candidate id")
			})
		})

		convey.Convey("When the allocation exceeds the job timeout", func() {
			alloc.mu.Lock()
			alloc.block = true
			alloc.mu.Unlock()
			submit(t, store, q, "job-3", "S1")
			job := waitForStatus(store, "job-3", types.JobFailed)

			convey.Convey("Then the job fails with a deadline error", func() {
				convey.So(job.Status, convey.ShouldEqual, types.JobFailed)
				convey.So(job.Error, convey.ShouldContainSubstring, "deadline exceeded")
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		ctx := context.Background()
		q := newMockQueue()
		store := repository.NewMemoryStore()
		alloc := &mockAllocator{}
		pool := worker.NewPool(3, q, alloc, store)

		convey.So(pool.Size(), convey.ShouldEqual, 3)
		pool.Start(ctx)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			for _, id := range []string{"a", "b", "c", "d"} {
				submit(t, store, q, id, "S1")
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every queued job was processed", func() {
				convey.So(err, convey.ShouldBeNil)
				counts, _ := store.Count(ctx)
				convey.So(counts[types.JobDone], convey.ShouldEqual, 4)
			})
		})
	})
}
