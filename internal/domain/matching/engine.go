// Package matching ranks opportunities per candidate and allocates
// candidates to opportunities under capacity constraints.
package matching

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/pkg/logger"
	"github.com/okian/placement/pkg/metrics"
)

// Options control a ranking run.
type Options struct {
	// MaxMatches truncates the ranked list. Zero or negative keeps every match.
	MaxMatches int
	// MinScore drops matches whose overall score is below it.
	MinScore float64
	// EquityBoost enables the diversity bonuses.
	EquityBoost bool
}

// DefaultOptions returns MaxMatches 10, MinScore 0.5 and the equity boost on.
func DefaultOptions() Options {
	return Options{MaxMatches: 10, MinScore: 0.5, EquityBoost: true}
}

// Engine ranks and allocates. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	scorer  scoring.Scorer
	workers int
	log     logger.Logger
}

// New returns an Engine scoring pairs with s.
func New(s scoring.Scorer, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, ErrNilScorer
	}
	e := &Engine{
		scorer:  s,
		workers: defaultWorkers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rank scores c against every opportunity with open capacity and returns the
// matches at or above opts.MinScore, best first. Ties are ordered by
// ascending opportunity id. An empty pool yields an empty list.
func (e *Engine) Rank(ctx context.Context, c model.Candidate, opportunities []model.Opportunity, opts Options) ([]model.MatchScore, error) {
	start := time.Now()

	eligible := make([]model.Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		if o.HasCapacity() {
			eligible = append(eligible, o)
		}
	}
	if len(eligible) == 0 {
		e.logger().Warn(ctx, "no opportunities with open capacity",
			logger.String("candidate_id", c.ID),
			logger.Int("opportunities", len(opportunities)))
		return []model.MatchScore{}, nil
	}

	scores := make([]model.MatchScore, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, o := range eligible {
		g.Go(func() error {
			ms, err := e.scorer.Score(gctx, c, o, opts.EquityBoost)
			if err != nil {
				return err
			}
			scores[i] = ms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := make([]model.MatchScore, 0, len(scores))
	for _, ms := range scores {
		if ms.OverallScore >= opts.MinScore {
			matches = append(matches, ms)
		}
	}
	sortMatches(matches)
	if opts.MaxMatches > 0 && len(matches) > opts.MaxMatches {
		matches = matches[:opts.MaxMatches]
	}

	metrics.RecordRank(len(matches), float64(time.Since(start).Microseconds())/1000)
	return matches, nil
}

// RankBatch ranks every candidate. The result has an entry, possibly empty,
// for each candidate id.
func (e *Engine) RankBatch(ctx context.Context, candidates []model.Candidate, opportunities []model.Opportunity, opts Options) (map[string][]model.MatchScore, error) {
	out := make(map[string][]model.MatchScore, len(candidates))
	for _, c := range candidates {
		matches, err := e.Rank(ctx, c, opportunities, opts)
		if err != nil {
			return nil, err
		}
		out[c.ID] = matches
		e.logger().Debug(ctx, "candidate ranked",
			logger.String("candidate_id", c.ID),
			logger.Int("matches", len(matches)))
	}
	return out, nil
}

func (e *Engine) logger() logger.Logger {
	if e.log != nil {
		return e.log
	}
	return logger.Named("matching")
}

func sortMatches(matches []model.MatchScore) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].OverallScore != matches[j].OverallScore {
			return matches[i].OverallScore > matches[j].OverallScore
		}
		return matches[i].OpportunityID < matches[j].OpportunityID
	})
}
