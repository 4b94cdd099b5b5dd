package scoring

import (
	"fmt"
	"math"

	"github.com/okian/placement/internal/domain/model"
)

const weightSumTolerance = 1e-6

// Weights are the composite factor weights. They must be non-negative and
// sum to 1.
type Weights struct {
	Skill         float64 `json:"skill"`
	Qualification float64 `json:"qualification"`
	Location      float64 `json:"location"`
	Sector        float64 `json:"sector"`
	Diversity     float64 `json:"diversity"`
}

// DefaultWeights returns the calibrated production weights.
func DefaultWeights() Weights {
	return Weights{
		Skill:         0.35,
		Qualification: 0.25,
		Location:      0.15,
		Sector:        0.15,
		Diversity:     0.10,
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Skill + w.Qualification + w.Location + w.Sector + w.Diversity
}

// Validate rejects negative weights and weights not summing to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		model.FactorSkills:        w.Skill,
		model.FactorQualification: w.Qualification,
		model.FactorLocation:      w.Location,
		model.FactorSector:        w.Sector,
		model.FactorDiversity:     w.Diversity,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s weight %v is negative", ErrInvalidWeights, name, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// Policy holds the tier ordinals and the equity priority sets.
type Policy struct {
	QualificationRanks  map[model.QualificationTier]int
	PriorityCategories  []model.EquityCategory
	PriorityGeographies []model.GeographyClass
}

// DefaultPolicy returns tiers ranked 1..4 with SC/ST/OBC and
// RURAL/ASPIRATIONAL as priority groups.
func DefaultPolicy() Policy {
	return Policy{
		QualificationRanks: map[model.QualificationTier]int{
			model.TierDiploma:       1,
			model.TierUndergraduate: 2,
			model.TierPostgraduate:  3,
			model.TierDoctorate:     4,
		},
		PriorityCategories:  []model.EquityCategory{model.CategorySC, model.CategoryST, model.CategoryOBC},
		PriorityGeographies: []model.GeographyClass{model.GeographyRural, model.GeographyAspirational},
	}
}

func (p Policy) rank(t model.QualificationTier) (int, error) {
	r, ok := p.QualificationRanks[t]
	if !ok || r <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return r, nil
}

func (p Policy) priorityCategory(c model.EquityCategory) bool {
	for _, pc := range p.PriorityCategories {
		if pc == c {
			return true
		}
	}
	return false
}

func (p Policy) priorityGeography(g model.GeographyClass) bool {
	for _, pg := range p.PriorityGeographies {
		if pg == g {
			return true
		}
	}
	return false
}

func (p Policy) clone() Policy {
	out := Policy{
		QualificationRanks:  make(map[model.QualificationTier]int, len(p.QualificationRanks)),
		PriorityCategories:  append([]model.EquityCategory(nil), p.PriorityCategories...),
		PriorityGeographies: append([]model.GeographyClass(nil), p.PriorityGeographies...),
	}
	for k, v := range p.QualificationRanks {
		out.QualificationRanks[k] = v
	}
	return out
}
