// Package analytics summarizes match results.
package analytics

import (
	"math"
	"strings"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/internal/domain/types"
)

// Generate aggregates results into a report. Distributions are keyed by the
// factor explanation text; diversity explanations are split into their
// individual reasons.
func Generate(results []types.MatchResult) types.AnalyticsReport {
	report := types.AnalyticsReport{
		TotalStudents:         len(results),
		DiversityDistribution: map[string]int{},
		SectorDistribution:    map[string]int{},
		LocationDistribution:  map[string]int{},
	}
	if len(results) == 0 {
		return report
	}

	internships := make(map[string]struct{})
	var totalMatches int
	var scoreSum float64

	for _, r := range results {
		for _, m := range r.Matches {
			totalMatches++
			scoreSum += m.OverallScore
			internships[m.OpportunityID] = struct{}{}

			if div, ok := m.Explanation[model.FactorDiversity]; ok {
				for _, reason := range strings.Split(div, ", ") {
					if reason != scoring.ExplainNoDiversity {
						report.DiversityDistribution[reason]++
					}
				}
			}
			if sector, ok := m.Explanation[model.FactorSector]; ok {
				report.SectorDistribution[sector]++
			}
			if location, ok := m.Explanation[model.FactorLocation]; ok {
				report.LocationDistribution[location]++
			}
		}
	}

	report.TotalInternships = len(internships)
	report.AvgMatchesPerStudent = round(float64(totalMatches)/float64(len(results)), 2)
	if totalMatches > 0 {
		report.AvgMatchScore = round(scoreSum/float64(totalMatches), 4)
	}
	return report
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
