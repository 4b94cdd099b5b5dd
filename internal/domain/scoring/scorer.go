// Package scoring computes the five-factor compatibility of a candidate with
// an opportunity.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/placement/internal/domain/embedding"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/pkg/logger"
	"github.com/okian/placement/pkg/metrics"
)

// Scorer scores one candidate/opportunity pair.
type Scorer interface {
	Score(ctx context.Context, c model.Candidate, o model.Opportunity, equityBoost bool) (model.MatchScore, error)
}

// CompositeScorer combines the factor scorers with fixed weights.
// It is safe for concurrent use.
type CompositeScorer struct {
	embedder embedding.Embedder
	weights  Weights
	policy   Policy
	log      logger.Logger
}

// New returns a CompositeScorer using e for skill embeddings.
func New(e embedding.Embedder, opts ...Option) (*CompositeScorer, error) {
	if e == nil {
		return nil, ErrNilEmbedder
	}
	s := &CompositeScorer{
		embedder: e,
		weights:  DefaultWeights(),
		policy:   DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Weights returns the configured weights.
func (s *CompositeScorer) Weights() Weights { return s.weights }

// Score computes the MatchScore for c against o. Factor failures degrade the
// affected factor to 0; a panic in any factor degrades the whole pair to 0.
// Only context cancellation returns an error.
func (s *CompositeScorer) Score(ctx context.Context, c model.Candidate, o model.Opportunity, equityBoost bool) (ms model.MatchScore, err error) {
	if err := ctx.Err(); err != nil {
		return model.MatchScore{}, err
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("%w: %v", ErrScorerPanic, r)
			s.logger().Error(ctx, "scoring panicked",
				logger.String("candidate_id", c.ID),
				logger.String("opportunity_id", o.ID),
				logger.Error(perr))
			metrics.RecordFactorError("panic")
			ms, err = failedScore(c.ID, o.ID), nil
		}
		metrics.RecordPairScored(float64(time.Since(start).Microseconds()) / 1000)
	}()

	results := map[string]FactorResult{
		model.FactorSkills:        SkillFactor(ctx, s.embedder, c.Skills, o.RequiredSkills),
		model.FactorQualification: QualificationFactor(s.policy, c.Qualification, o.PreferredQualification, c.AcademicScore, o.MinAcademicScore),
		model.FactorLocation:      LocationFactor(c.PreferredLocations, o.Location),
		model.FactorSector:        SectorFactor(c.SectorInterests, o.Sector),
		model.FactorDiversity:     DiversityFactor(s.policy, c, equityBoost),
	}

	// A skill failure caused by the caller's context is an abort, not a soft
	// failure.
	if skill := results[model.FactorSkills]; skill.Failed() && ctx.Err() != nil &&
		(errors.Is(skill.Err, context.Canceled) || errors.Is(skill.Err, context.DeadlineExceeded)) {
		return model.MatchScore{}, ctx.Err()
	}

	explanation := make(map[string]string, len(results))
	for name, r := range results {
		explanation[name] = r.Explanation
		if r.Failed() {
			metrics.RecordFactorError(name)
			s.logger().Warn(ctx, "factor degraded",
				logger.String("factor", name),
				logger.String("candidate_id", c.ID),
				logger.String("opportunity_id", o.ID),
				logger.Error(r.Err))
		}
	}

	ms = model.MatchScore{
		CandidateID:        c.ID,
		OpportunityID:      o.ID,
		SkillScore:         Round4(results[model.FactorSkills].Score),
		QualificationScore: Round4(results[model.FactorQualification].Score),
		LocationScore:      Round4(results[model.FactorLocation].Score),
		SectorScore:        Round4(results[model.FactorSector].Score),
		DiversityScore:     Round4(results[model.FactorDiversity].Score),
		Explanation:        explanation,
	}
	ms.OverallScore = Round4(ms.SkillScore*s.weights.Skill +
		ms.QualificationScore*s.weights.Qualification +
		ms.LocationScore*s.weights.Location +
		ms.SectorScore*s.weights.Sector +
		ms.DiversityScore*s.weights.Diversity)
	return ms, nil
}

func (s *CompositeScorer) logger() logger.Logger {
	if s.log != nil {
		return s.log
	}
	return logger.Named("scoring")
}

func failedScore(candidateID, opportunityID string) model.MatchScore {
	explanation := make(map[string]string, len(model.Factors))
	for _, f := range model.Factors {
		explanation[f] = ExplainError
	}
	return model.MatchScore{
		CandidateID:   candidateID,
		OpportunityID: opportunityID,
		Explanation:   explanation,
	}
}

// Round4 rounds x half away from zero to four decimal places.
func Round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
