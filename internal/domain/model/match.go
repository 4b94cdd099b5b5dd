package model

// FactorScore is one of the five sub-scores of a match.
type FactorScore struct {
	Value       float64
	Explanation string
}

// MatchScore is the scored compatibility of one candidate with one
// opportunity. Scores are rounded to four decimal places.
type MatchScore struct {
	CandidateID        string            `json:"student_id"`
	OpportunityID      string            `json:"internship_id"`
	OverallScore       float64           `json:"overall_score"`
	SkillScore         float64           `json:"skill_score"`
	QualificationScore float64           `json:"qualification_score"`
	LocationScore      float64           `json:"location_score"`
	SectorScore        float64           `json:"sector_score"`
	DiversityScore     float64           `json:"diversity_score"`
	Explanation        map[string]string `json:"explanation"`
}

// Allocation maps candidate id to the opportunity id it was assigned.
type Allocation map[string]string

// CountByOpportunity returns how many candidates each opportunity received.
func (a Allocation) CountByOpportunity() map[string]int {
	out := make(map[string]int, len(a))
	for _, oppID := range a {
		out[oppID]++
	}
	return out
}
