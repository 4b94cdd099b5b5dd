package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/pkg/logger"
	"github.com/okian/placement/pkg/metrics"
)

// Allocate assigns candidates to opportunities greedily: each round every
// unallocated candidate proposes its best opportunity that still has room,
// and the highest-scoring proposal wins. Candidates are scanned in ascending
// id order and a later proposal must score strictly higher to win, so equal
// scores go to the lowest candidate id. The result is not globally optimal.
//
// Opportunity capacity is tracked on a private copy; the inputs are not
// modified.
func (e *Engine) Allocate(ctx context.Context, candidates []model.Candidate, opportunities []model.Opportunity, equityBoost bool) (model.Allocation, error) {
	start := time.Now()
	allocation, err := e.allocate(ctx, candidates, opportunities, equityBoost)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordAllocation("error", 0, 0, latency)
		return nil, err
	}
	metrics.RecordAllocation("ok", len(allocation), len(candidates)-len(allocation), latency)
	e.logger().Info(ctx, fmt.Sprintf("allocated %d of %d candidates", len(allocation), len(candidates)),
		logger.Int("opportunities", len(opportunities)),
		logger.Float64("latency_ms", latency))
	return allocation, nil
}

func (e *Engine) allocate(ctx context.Context, candidates []model.Candidate, opportunities []model.Opportunity, equityBoost bool) (model.Allocation, error) {
	if err := checkUnique(candidates, opportunities); err != nil {
		return nil, err
	}

	remaining := make(map[string]int, len(opportunities))
	for _, o := range opportunities {
		remaining[o.ID] = o.Remaining()
	}

	opts := Options{MaxMatches: len(opportunities), MinScore: 0, EquityBoost: equityBoost}
	rankings, err := e.RankBatch(ctx, candidates, opportunities, opts)
	if err != nil {
		return nil, err
	}

	unallocated := make([]string, 0, len(candidates))
	for _, c := range candidates {
		unallocated = append(unallocated, c.ID)
	}
	sort.Strings(unallocated)

	allocation := make(model.Allocation, len(candidates))
	for len(unallocated) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		winner, winnerOpp, winnerScore := -1, "", math.Inf(-1)
		for i, id := range unallocated {
			for _, m := range rankings[id] {
				if remaining[m.OpportunityID] <= 0 {
					continue
				}
				if m.OverallScore > winnerScore {
					winner, winnerOpp, winnerScore = i, m.OpportunityID, m.OverallScore
				}
				break
			}
		}
		if winner < 0 {
			break
		}

		allocation[unallocated[winner]] = winnerOpp
		remaining[winnerOpp]--
		unallocated = append(unallocated[:winner], unallocated[winner+1:]...)
	}
	return allocation, nil
}

func checkUnique(candidates []model.Candidate, opportunities []model.Opportunity) error {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateCandidate, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(opportunities))
	for _, o := range opportunities {
		if _, ok := seen[o.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateOpportunity, o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	return nil
}

// Summary describes an allocation run.
type Summary struct {
	TotalCandidates int     `json:"total_students"`
	Allocated       int     `json:"total_allocated"`
	Unallocated     int     `json:"total_unallocated"`
	AllocationRate  float64 `json:"allocation_rate"`
}

// Summarize returns totals for a over total candidates. AllocationRate is a
// percentage rounded to two decimal places, 0 for an empty run.
func Summarize(a model.Allocation, total int) Summary {
	s := Summary{TotalCandidates: total, Allocated: len(a), Unallocated: total - len(a)}
	if total > 0 {
		s.AllocationRate = math.Round(float64(len(a))/float64(total)*100*100) / 100
	}
	return s
}
