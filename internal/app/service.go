// Package service wires configuration into the matching engine and the
// asynchronous allocation job pipeline, and implements the dependencies
// required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	embedgemini "github.com/okian/placement/internal/adapters/embedding/gemini"
	jobqueue "github.com/okian/placement/internal/adapters/mq/queue"
	workerpool "github.com/okian/placement/internal/adapters/mq/worker"
	"github.com/okian/placement/internal/adapters/repository"
	"github.com/okian/placement/internal/config"
	"github.com/okian/placement/internal/domain/analytics"
	"github.com/okian/placement/internal/domain/embedding"
	"github.com/okian/placement/internal/domain/matching"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/logger"
	"github.com/okian/placement/pkg/metrics"
)

// Service implements the API dependencies for the placement system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Matching
	backend embedding.Embedder
	cache   *embedding.CachedEmbedder
	scorer  *scoring.CompositeScorer
	engine  *matching.Engine

	// Allocation jobs
	jobs     repository.Store
	ownStore bool // opened by Start, discarded by Stop
	queue    *jobqueue.InMemoryQueue
	pool     *workerpool.Pool
	newID    func() string

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New builds the matching stack from cfg. The job pipeline is created by
// Start; synchronous matching works without it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New(ctx)
	}
	s := &Service{
		cfg:   cfg,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.backend == nil {
		backend, err := newBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.backend = backend
	}
	s.cache = embedding.NewCachedEmbedder(
		embedding.NewGuarded(s.backend, cfg.EmbedTimeout()),
		embedding.WithMaxEntries(cfg.Embedding.CacheSize),
	)

	scorer, err := scoring.New(s.cache,
		scoring.WithWeights(cfg.ScoringWeights()),
		scoring.WithPolicy(cfg.ScoringPolicy()),
		scoring.WithLogger(s.logger.Named("scoring")),
	)
	if err != nil {
		return nil, fmt.Errorf("build scorer: %w", err)
	}
	s.scorer = scorer

	engine, err := matching.New(scorer,
		matching.WithWorkers(cfg.ScoringWorkers),
		matching.WithLogger(s.logger.Named("matching")),
	)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	s.engine = engine
	return s, nil
}

func newBackend(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderGemini:
		e, err := embedgemini.New(ctx, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimension)
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		return e, nil
	case config.ProviderHash, "":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", config.ErrInvalidConfig, cfg.Embedding.Provider)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return repository.NewSQLiteStore(ctx, cfg.Store.DSN)
	case config.DriverMemory, "":
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.Store.Driver)
	}
}

// Start opens the job store and starts the allocation workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting placement service...")

	if s.jobs == nil {
		store, err := newStore(ctx, s.cfg)
		if err != nil {
			return err
		}
		s.jobs = store
		s.ownStore = true
	}
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.cfg.QueueSize))
	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, s.engine, s.jobs,
		workerpool.WithJobTimeout(s.cfg.JobTimeout()),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	// Workers outlive the start request; they stop when the queue closes.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "placement service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.String("embedding", s.cfg.Embedding.Provider),
		logger.String("store", s.cfg.Store.Driver),
	)
	return nil
}

// Stop drains queued jobs and closes the job store opened by Start.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping placement service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.ownStore {
		if err := s.jobs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close job store: %w", err))
		}
		s.jobs = nil
		s.ownStore = false
	}

	s.started = false
	s.logger.Info(ctx, "placement service stopped")
	return errors.Join(errs...)
}

// Ready reports whether the job pipeline is running.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// MatchSingle ranks every internship for one student with a zero score
// threshold and the equity boost enabled.
func (s *Service) MatchSingle(ctx context.Context, req types.SingleMatchRequest) (types.MatchResult, error) {
	if err := req.Validate(); err != nil {
		return types.MatchResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := req.Student.Validate(); err != nil {
		return types.MatchResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	opts := matching.Options{MaxMatches: s.cfg.MaxMatches, MinScore: 0, EquityBoost: true}
	if req.MaxMatches != nil {
		opts.MaxMatches = *req.MaxMatches
	}

	s.logger.Info(ctx, "processing single match", logger.String("student_id", req.Student.ID))
	matches, err := s.engine.Rank(ctx, req.Student, req.Internships, opts)
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("rank student %s: %w", req.Student.ID, err)
	}
	return types.MatchResult{
		StudentID:    req.Student.ID,
		StudentName:  req.Student.Name,
		Matches:      matches,
		TotalMatches: len(matches),
	}, nil
}

// MatchBatch ranks internships for every student. Request fields override the
// configured ranking defaults. Results follow the request's student order.
func (s *Service) MatchBatch(ctx context.Context, req types.MatchRequest) (types.BatchMatchResponse, error) {
	if err := req.Validate(); err != nil {
		return types.BatchMatchResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	start := time.Now()
	opts := s.cfg.MatchOptions()
	if req.DiversityBoost != nil {
		opts.EquityBoost = *req.DiversityBoost
	}
	if req.MaxMatchesPerStudent != nil {
		opts.MaxMatches = *req.MaxMatchesPerStudent
	}
	if req.MinScoreThreshold != nil {
		opts.MinScore = *req.MinScoreThreshold
	}

	s.logger.Info(ctx, "processing batch match",
		logger.Int("students", len(req.Students)),
		logger.Int("internships", len(req.Internships)))

	ranked, err := s.engine.RankBatch(ctx, req.Students, req.Internships, opts)
	if err != nil {
		return types.BatchMatchResponse{}, fmt.Errorf("rank batch: %w", err)
	}

	resp := types.BatchMatchResponse{
		Results:                make([]types.MatchResult, 0, len(req.Students)),
		TotalStudentsProcessed: len(req.Students),
	}
	for _, st := range req.Students {
		matches := ranked[st.ID]
		resp.TotalMatchesGenerated += len(matches)
		resp.Results = append(resp.Results, types.MatchResult{
			StudentID:    st.ID,
			StudentName:  st.Name,
			Matches:      matches,
			TotalMatches: len(matches),
		})
	}
	elapsed := time.Since(start)
	resp.ProcessingTimeSeconds = math.Round(elapsed.Seconds()*100) / 100

	s.logger.Info(ctx, "batch matching completed",
		logger.Duration("elapsed", elapsed),
		logger.Int("matches", resp.TotalMatchesGenerated))
	return resp, nil
}

// Optimize runs an allocation synchronously.
func (s *Service) Optimize(ctx context.Context, req types.OptimizeRequest) (types.OptimizeResponse, error) {
	if err := req.Validate(); err != nil {
		return types.OptimizeResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	boost := true
	if req.DiversityBoost != nil {
		boost = *req.DiversityBoost
	}

	s.logger.Info(ctx, "optimizing allocation", logger.Int("students", len(req.Students)))
	allocation, err := s.engine.Allocate(ctx, req.Students, req.Internships, boost)
	if err != nil {
		if errors.Is(err, matching.ErrDuplicateCandidate) || errors.Is(err, matching.ErrDuplicateOpportunity) {
			return types.OptimizeResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return types.OptimizeResponse{}, fmt.Errorf("allocate: %w", err)
	}

	summary := matching.Summarize(allocation, len(req.Students))
	return types.OptimizeResponse{
		Allocation:     allocation,
		TotalAllocated: summary.Allocated,
		TotalStudents:  summary.TotalCandidates,
		AllocationRate: summary.AllocationRate,
	}, nil
}

// SubmitAllocation validates req and queues it as an allocation job. It
// returns ErrBackpressure when the queue is full; the job is then recorded
// as failed.
func (s *Service) SubmitAllocation(ctx context.Context, req types.OptimizeRequest) (types.Job, error) {
	if err := req.Validate(); err != nil {
		return types.Job{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Job{}, ErrNotStarted
	}

	boost := true
	if req.DiversityBoost != nil {
		boost = *req.DiversityBoost
	}

	id := s.newID()
	job, err := s.jobs.Create(ctx, id)
	if err != nil {
		return types.Job{}, fmt.Errorf("create job: %w", err)
	}
	metrics.RecordJob(string(types.JobPending))

	task := jobqueue.Task{
		JobID:         id,
		Candidates:    req.Students,
		Opportunities: req.Internships,
		EquityBoost:   boost,
		SubmittedAt:   time.Now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		reason := err.Error()
		if ferr := s.jobs.Fail(ctx, id, reason); ferr != nil {
			s.logger.Error(ctx, "failed to record rejected job", logger.String("job_id", id), logger.Error(ferr))
		}
		metrics.RecordJob(string(types.JobFailed))
		if errors.Is(err, jobqueue.ErrFull) || errors.Is(err, jobqueue.ErrClosed) {
			return types.Job{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return types.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Debug(ctx, "allocation job queued",
		logger.String("job_id", id),
		logger.Int("students", len(req.Students)))
	return job, nil
}

// GetJob returns an allocation job by id.
func (s *Service) GetJob(ctx context.Context, id string) (types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Job{}, ErrNotStarted
	}
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Job{}, fmt.Errorf("%w: %w", ErrJobNotFound, err)
	}
	return job, err
}

// Analytics summarizes a set of match results.
func (s *Service) Analytics(_ context.Context, req types.AnalyticsRequest) types.AnalyticsReport {
	return analytics.Generate(req.MatchResults)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.cfg.WorkerCount,
		"queueSize":         s.cfg.QueueSize,
		"embeddingProvider": s.cfg.Embedding.Provider,
		"embeddingCached":   s.cache.Len(),
		"storeDriver":       s.cfg.Store.Driver,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		metrics.UpdateQueueSize(queueLen)

		if counts, err := s.jobs.Count(ctx); err == nil {
			byStatus := make(map[string]int, len(counts))
			for status, n := range counts {
				byStatus[string(status)] = n
			}
			stats["jobs"] = byStatus
		} else {
			s.logger.Warn(ctx, "failed to count jobs", logger.Error(err))
		}
	}

	return stats
}
