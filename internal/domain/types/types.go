// Package types contains the request and response shapes shared by the
// service, the HTTP transport and the CLI.
package types

import (
	"time"

	"github.com/okian/placement/internal/domain/model"
)

// MatchRequest ranks every student against the internship pool.
type MatchRequest struct {
	Students             []model.Candidate   `json:"students" validate:"required,min=1,dive"`
	Internships          []model.Opportunity `json:"internships" validate:"required,min=1,dive"`
	DiversityBoost       *bool               `json:"diversity_boost,omitempty"`
	MaxMatchesPerStudent *int                `json:"max_matches_per_student,omitempty" validate:"omitempty,gte=1,lte=50"`
	MinScoreThreshold    *float64            `json:"min_score_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Validate checks the request and every record in it.
func (r MatchRequest) Validate() error {
	return model.ValidateStruct("match request", "", r)
}

// SingleMatchRequest ranks one student. Matching uses a zero score
// threshold with the equity boost enabled.
type SingleMatchRequest struct {
	Student     model.Candidate     `json:"student"`
	Internships []model.Opportunity `json:"internships" validate:"required,min=1,dive"`
	MaxMatches  *int                `json:"max_matches,omitempty" validate:"omitempty,gte=1,lte=50"`
}

// Validate checks the request and every record in it.
func (r SingleMatchRequest) Validate() error {
	return model.ValidateStruct("single match request", r.Student.ID, r)
}

// OptimizeRequest allocates students to internships.
type OptimizeRequest struct {
	Students       []model.Candidate   `json:"students" validate:"required,dive"`
	Internships    []model.Opportunity `json:"internships" validate:"required,dive"`
	DiversityBoost *bool               `json:"diversity_boost,omitempty"`
}

// Validate checks the request and every record in it.
func (r OptimizeRequest) Validate() error {
	return model.ValidateStruct("optimize request", "", r)
}

// MatchResult is the ranked list for one student.
type MatchResult struct {
	StudentID    string             `json:"student_id"`
	StudentName  string             `json:"student_name"`
	Matches      []model.MatchScore `json:"matches"`
	TotalMatches int                `json:"total_matches"`
}

// BatchMatchResponse is the outcome of a MatchRequest.
type BatchMatchResponse struct {
	Results                []MatchResult `json:"results"`
	TotalStudentsProcessed int           `json:"total_students_processed"`
	TotalMatchesGenerated  int           `json:"total_matches_generated"`
	ProcessingTimeSeconds  float64       `json:"processing_time_seconds"`
}

// OptimizeResponse is the outcome of an allocation run.
type OptimizeResponse struct {
	Allocation     model.Allocation `json:"allocation"`
	TotalAllocated int              `json:"total_allocated"`
	TotalStudents  int              `json:"total_students"`
	AllocationRate float64          `json:"allocation_rate"`
}

// AnalyticsRequest carries match results to summarize.
type AnalyticsRequest struct {
	MatchResults []MatchResult `json:"match_results"`
}

// AnalyticsReport aggregates a set of match results.
type AnalyticsReport struct {
	TotalStudents         int            `json:"total_students"`
	TotalInternships      int            `json:"total_internships"`
	AvgMatchesPerStudent  float64        `json:"avg_matches_per_student"`
	AvgMatchScore         float64        `json:"avg_match_score"`
	DiversityDistribution map[string]int `json:"diversity_distribution"`
	SectorDistribution    map[string]int `json:"sector_distribution"`
	LocationDistribution  map[string]int `json:"location_distribution"`
}

// JobStatus is the lifecycle state of an allocation job.
type JobStatus string

// Job states. Pending and running are transient.
const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// AllocationTask is the queued work of one allocation job.
type AllocationTask struct {
	JobID         string
	Candidates    []model.Candidate
	Opportunities []model.Opportunity
	EquityBoost   bool
	SubmittedAt   time.Time
}

// Job is an asynchronous allocation run.
type Job struct {
	ID        string            `json:"job_id"`
	Status    JobStatus         `json:"status"`
	Result    *OptimizeResponse `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
