package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/placement/internal/adapters/http/api"
	"github.com/okian/placement/internal/adapters/mq/queue"
	"github.com/okian/placement/internal/adapters/repository"
	"github.com/okian/placement/internal/domain/matching"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/types"
)

// Mock implementations for testing
type mockDependencies struct {
	ready bool
	err   error

	lastSingle   types.SingleMatchRequest
	lastBatch    types.MatchRequest
	lastOptimize types.OptimizeRequest
	jobs         map[string]types.Job
}

func (m *mockDependencies) MatchSingle(_ context.Context, req types.SingleMatchRequest) (types.MatchResult, error) {
	m.lastSingle = req
	if m.err != nil {
		return types.MatchResult{}, m.err
	}
	return types.MatchResult{
		StudentID:    req.Student.ID,
		StudentName:  req.Student.Name,
		Matches:      []model.MatchScore{{CandidateID: req.Student.ID, OpportunityID: "I1", OverallScore: 0.81}},
		TotalMatches: 1,
	}, nil
}

func (m *mockDependencies) MatchBatch(_ context.Context, req types.MatchRequest) (types.BatchMatchResponse, error) {
	m.lastBatch = req
	if m.err != nil {
		return types.BatchMatchResponse{}, m.err
	}
	return types.BatchMatchResponse{TotalStudentsProcessed: len(req.Students)}, nil
}

func (m *mockDependencies) Optimize(_ context.Context, req types.OptimizeRequest) (types.OptimizeResponse, error) {
	m.lastOptimize = req
	if m.err != nil {
		return types.OptimizeResponse{}, m.err
	}
	return types.OptimizeResponse{
		Allocation:     model.Allocation{"S1": "I1"},
		TotalAllocated: 1,
		TotalStudents:  len(req.Students),
		AllocationRate: 50,
	}, nil
}

func (m *mockDependencies) Analytics(_ context.Context, req types.AnalyticsRequest) types.AnalyticsReport {
	return types.AnalyticsReport{TotalStudents: len(req.MatchResults)}
}

func (m *mockDependencies) SubmitAllocation(_ context.Context, req types.OptimizeRequest) (types.Job, error) {
	m.lastOptimize = req
	if m.err != nil {
		return types.Job{}, m.err
	}
	job := types.Job{ID: "job-1", Status: types.JobPending}
	if m.jobs == nil {
		m.jobs = map[string]types.Job{}
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *mockDependencies) GetJob(_ context.Context, id string) (types.Job, error) {
	job, ok := m.jobs[id]
	if !ok {
		return types.Job{}, fmt.Errorf("job not found: %w", repository.ErrNotFound)
	}
	return job, nil
}

func (m *mockDependencies) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": m.ready}
}

func (m *mockDependencies) Ready() bool { return m.ready }

const optimizeBody = `{
  "students": [{"student_id": "S1", "name": "Asha", "skills": ["Go"], "qualification": "UNDERGRADUATE",
    "cgpa": 8, "location_preference": ["Pune"], "sector_interests": ["Technology"],
    "social_category": "SC", "district_type": "RURAL", "past_internships": 0}],
  "internships": [{"internship_id": "I1", "required_skills": ["Go"], "preferred_qualification": "UNDERGRADUATE",
    "sector": "Technology", "location": "Pune", "capacity": 1, "filled_positions": 0, "min_cgpa": 6}]
}`

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps)

		Convey("Then health endpoint serves metrics", func() {
			w := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then readiness follows the service", func() {
			So(do(mux, "GET", "/readyz", "").Code, ShouldEqual, http.StatusOK)
			deps.ready = false
			w := do(mux, "GET", "/readyz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "starting")
		})

		Convey("Then stats endpoint should be accessible", func() {
			w := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then unknown routes are not found", func() {
			So(do(mux, "GET", "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then the wrong method is rejected", func() {
			So(do(mux, "GET", "/v1/matching/batch", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestMatchingHandlers(t *testing.T) {
	Convey("Given a server with matching dependencies", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps)

		Convey("When posting a single match", func() {
			body := `{"student": {"student_id": "S1", "name": "Asha"}, "internships": [], "max_matches": 3}`
			w := do(mux, "POST", "/v1/matching/single", body)

			Convey("Then the result is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res types.MatchResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.StudentID, ShouldEqual, "S1")
				So(res.Matches[0].OverallScore, ShouldEqual, 0.81)
				So(*deps.lastSingle.MaxMatches, ShouldEqual, 3)
			})
		})

		Convey("When posting a batch with overrides", func() {
			body := `{"students": [], "internships": [], "diversity_boost": false, "min_score_threshold": 0.2}`
			w := do(mux, "POST", "/v1/matching/batch", body)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(*deps.lastBatch.DiversityBoost, ShouldBeFalse)
			So(*deps.lastBatch.MinScoreThreshold, ShouldEqual, 0.2)
		})

		Convey("When optimizing with a query override", func() {
			w := do(mux, "POST", "/v1/matching/optimize?diversity_boost=false", optimizeBody)

			Convey("Then the totals are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"allocation_rate":50`)
				So(deps.lastOptimize.Students[0].EquityCategory, ShouldEqual, model.CategorySC)
				So(*deps.lastOptimize.DiversityBoost, ShouldBeFalse)
			})
		})

		Convey("When the body is malformed", func() {
			w := do(mux, "POST", "/v1/matching/batch", `{"students":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
		})

		Convey("When the query override is malformed", func() {
			w := do(mux, "POST", "/v1/matching/optimize?diversity_boost=maybe", optimizeBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service rejects a record", func() {
			deps.err = fmt.Errorf("invalid request: %w", model.ErrInvalidRecord)
			w := do(mux, "POST", "/v1/matching/optimize", optimizeBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When ids repeat", func() {
			deps.err = fmt.Errorf("allocate: %w", matching.ErrDuplicateCandidate)
			w := do(mux, "POST", "/v1/matching/optimize", optimizeBody)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service fails", func() {
			deps.err = context.Canceled
			w := do(mux, "POST", "/v1/matching/batch", `{"students": [], "internships": []}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorCode(w), ShouldEqual, "internal_error")
		})

		Convey("When the service times out", func() {
			deps.err = fmt.Errorf("rank batch: %w", context.DeadlineExceeded)
			w := do(mux, "POST", "/v1/matching/batch", `{"students": [], "internships": []}`)
			So(w.Code, ShouldEqual, http.StatusGatewayTimeout)
		})

		Convey("When posting analytics", func() {
			w := do(mux, "POST", "/v1/analytics", `{"match_results": [{"student_id": "S1"}, {"student_id": "S2"}]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"total_students":2`)
		})
	})
}

func TestAllocationHandlers(t *testing.T) {
	Convey("Given a server with a job pipeline", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps)

		Convey("When submitting an allocation", func() {
			w := do(mux, "POST", "/v1/allocations", optimizeBody)

			Convey("Then it is accepted with a job id", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Header().Get("Location"), ShouldEqual, "/v1/allocations/job-1")
				So(w.Body.String(), ShouldContainSubstring, `"job_id":"job-1"`)
				So(w.Body.String(), ShouldContainSubstring, `"status":"pending"`)
			})

			Convey("Then the job can be read back", func() {
				r := do(mux, "GET", "/v1/allocations/job-1", "")
				So(r.Code, ShouldEqual, http.StatusOK)
				So(r.Body.String(), ShouldContainSubstring, `"job_id":"job-1"`)
			})
		})

		Convey("When the job is unknown", func() {
			w := do(mux, "GET", "/v1/allocations/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("When the queue is full", func() {
			deps.err = fmt.Errorf("allocation queue full: %w", queue.ErrFull)
			w := do(mux, "POST", "/v1/allocations", optimizeBody)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "backpressure")
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given a server that requires an api key", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps, api.WithAPIKey("secret"))

		Convey("Then v1 requests without the key are refused", func() {
			w := do(mux, "POST", "/v1/analytics", `{"match_results": []}`)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(errorCode(w), ShouldEqual, "unauthorized")
		})

		Convey("Then v1 requests with the key pass", func() {
			w := do(mux, "POST", "/v1/analytics", `{"match_results": []}`, "X-API-Key", "secret")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then operational routes stay open", func() {
			So(do(mux, "GET", "/readyz", "").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a server with a tiny rate limit", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps, api.WithRateLimit(0.001, 2))

		Convey("When the burst is spent", func() {
			codes := make([]int, 0, 3)
			for i := 0; i < 3; i++ {
				codes = append(codes, do(mux, "POST", "/v1/analytics", `{"match_results": []}`).Code)
			}

			Convey("Then further requests are limited", func() {
				So(codes[:2], ShouldResemble, []int{http.StatusOK, http.StatusOK})
				So(codes[2], ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})

	Convey("Given a zero rate", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps, api.WithRateLimit(0, 0))

		Convey("Then limiting is disabled", func() {
			for i := 0; i < 20; i++ {
				So(do(mux, "POST", "/v1/analytics", `{"match_results": []}`).Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}
