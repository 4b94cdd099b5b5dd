package scoring

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/placement/internal/domain/embedding"
	"github.com/okian/placement/internal/domain/model"
)

// Factor weights and fixed scores.
const (
	semanticShare = 0.7
	overlapShare  = 0.3

	underqualifiedCredit = 0.5
	overqualifiedCredit  = 0.9
	belowMinimumCredit   = 0.5
	maxAcademicScore     = 10.0
	qualificationShare   = 0.6
	academicShare        = 0.4

	locationExact   = 1.0
	locationPartial = 0.8
	locationNone    = 0.3

	sectorExact   = 1.0
	sectorPartial = 0.7
	sectorNone    = 0.2

	diversityBase          = 0.5
	diversityCategoryBonus = 0.2
	diversityGeoBonus      = 0.2
	diversityFirstTimer    = 0.1
)

// Explanation texts shared with downstream analytics.
const (
	ExplainError            = "Error in calculation"
	ExplainDiversityOff     = "Diversity boost disabled"
	ExplainNoDiversity      = "No diversity factors"
	ExplainFirstTimeApplied = "First-time applicant"
)

// FactorResult is the outcome of one factor scorer. A failed factor carries
// Err, a zero Score and ExplainError; callers keep scoring the remaining
// factors.
type FactorResult struct {
	Score       float64
	Explanation string
	Err         error
}

// Failed reports whether the factor could not be computed.
func (r FactorResult) Failed() bool { return r.Err != nil }

func failed(err error) FactorResult {
	return FactorResult{Score: 0, Explanation: ExplainError, Err: err}
}

// SkillFactor blends the cosine similarity of the two skill-list embeddings
// (70%) with the case-insensitive overlap ratio against the required list
// (30%). Embedding failures degrade to a failed result.
func SkillFactor(ctx context.Context, e embedding.Embedder, candidateSkills, requiredSkills []string) FactorResult {
	var candVec, reqVec []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverEmbed(&err)
		candVec, err = e.Embed(gctx, candidateSkills)
		return err
	})
	g.Go(func() (err error) {
		defer recoverEmbed(&err)
		reqVec, err = e.Embed(gctx, requiredSkills)
		return err
	})
	if err := g.Wait(); err != nil {
		return failed(fmt.Errorf("embed skills: %w", err))
	}

	similarity, err := embedding.Cosine(candVec, reqVec)
	if err != nil {
		return failed(err)
	}

	overlap := overlapRatio(candidateSkills, requiredSkills)
	score := clamp01(similarity*semanticShare + overlap*overlapShare)

	return FactorResult{
		Score:       score,
		Explanation: fmt.Sprintf("Semantic similarity: %.2f, Direct overlap: %.2f", similarity, overlap),
	}
}

func recoverEmbed(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: embedder: %v", ErrScorerPanic, r)
	}
}

func overlapRatio(candidateSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return 0
	}
	have := make(map[string]struct{}, len(candidateSkills))
	for _, s := range candidateSkills {
		have[strings.ToLower(s)] = struct{}{}
	}
	common := make(map[string]struct{})
	for _, r := range requiredSkills {
		r = strings.ToLower(r)
		if _, ok := have[r]; ok {
			common[r] = struct{}{}
		}
	}
	return float64(len(common)) / float64(len(requiredSkills))
}

// QualificationFactor scores the tier match (60%) and the academic score
// against the opportunity minimum (40%).
func QualificationFactor(p Policy, candidate, required model.QualificationTier, academic, minimum float64) FactorResult {
	candRank, err := p.rank(candidate)
	if err != nil {
		return failed(err)
	}
	reqRank, err := p.rank(required)
	if err != nil {
		return failed(err)
	}

	var qual float64
	switch {
	case candRank < reqRank:
		qual = underqualifiedCredit * (float64(candRank) / float64(reqRank))
	case candRank == reqRank:
		qual = 1.0
	default:
		qual = overqualifiedCredit
	}

	var acad float64
	switch {
	case academic < minimum && minimum > 0:
		acad = belowMinimumCredit * (academic / minimum)
	case academic < minimum:
		acad = belowMinimumCredit
	default:
		acad = min(academic/maxAcademicScore, 1.0)
	}

	return FactorResult{
		Score:       clamp01(qual*qualificationShare + acad*academicShare),
		Explanation: fmt.Sprintf("Qualification match: %.2f, CGPA score: %.2f", qual, acad),
	}
}

// LocationFactor: exact preference 1.0, substring either way 0.8, else 0.3.
// Substring containment is a coarse heuristic ("east" matches "southeast").
func LocationFactor(preferences []string, location string) FactorResult {
	switch matchText(preferences, location) {
	case exactMatch:
		return FactorResult{Score: locationExact, Explanation: "Exact location match"}
	case partialMatch:
		return FactorResult{Score: locationPartial, Explanation: "Partial location match"}
	default:
		return FactorResult{Score: locationNone, Explanation: "No location match"}
	}
}

// SectorFactor: exact interest 1.0, substring either way 0.7, else 0.2.
func SectorFactor(interests []string, sector string) FactorResult {
	switch matchText(interests, sector) {
	case exactMatch:
		return FactorResult{Score: sectorExact, Explanation: "Exact sector match"}
	case partialMatch:
		return FactorResult{Score: sectorPartial, Explanation: "Partial sector match"}
	default:
		return FactorResult{Score: sectorNone, Explanation: "No sector match"}
	}
}

type textMatch int

const (
	noMatch textMatch = iota
	partialMatch
	exactMatch
)

func matchText(options []string, target string) textMatch {
	target = strings.ToLower(target)
	lowered := make([]string, len(options))
	for i, o := range options {
		lowered[i] = strings.ToLower(o)
		if lowered[i] == target {
			return exactMatch
		}
	}
	for _, o := range lowered {
		if strings.Contains(target, o) || strings.Contains(o, target) {
			return partialMatch
		}
	}
	return noMatch
}

// DiversityFactor adds equity bonuses on top of a neutral 0.5 when the boost
// is enabled, and returns exactly 0.5 otherwise.
func DiversityFactor(p Policy, c model.Candidate, boost bool) FactorResult {
	if !boost {
		return FactorResult{Score: diversityBase, Explanation: ExplainDiversityOff}
	}

	score := diversityBase
	var reasons []string
	if p.priorityCategory(c.EquityCategory) {
		score += diversityCategoryBonus
		reasons = append(reasons, "Social category: "+string(c.EquityCategory))
	}
	if p.priorityGeography(c.Geography) {
		score += diversityGeoBonus
		reasons = append(reasons, "District type: "+string(c.Geography))
	}
	if c.PriorPlacements == 0 {
		score += diversityFirstTimer
		reasons = append(reasons, ExplainFirstTimeApplied)
	}

	explanation := ExplainNoDiversity
	if len(reasons) > 0 {
		explanation = strings.Join(reasons, ", ")
	}
	return FactorResult{Score: min(score, 1.0), Explanation: explanation}
}

func clamp01(x float64) float64 {
	return max(0, min(x, 1))
}
