package types_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/types"
)

func student() model.Candidate {
	return model.Candidate{
		ID:                 "S1",
		Name:               "Asha",
		Skills:             []string{"python"},
		Qualification:      model.TierUndergraduate,
		AcademicScore:      7,
		PreferredLocations: []string{"Pune"},
		SectorInterests:    []string{"Fintech"},
		EquityCategory:     model.CategoryOBC,
		Geography:          model.GeographyRural,
	}
}

func internship() model.Opportunity {
	return model.Opportunity{
		ID:                     "I1",
		RequiredSkills:         []string{"python"},
		PreferredQualification: model.TierUndergraduate,
		Sector:                 "Fintech",
		Location:               "Pune",
		Capacity:               1,
	}
}

func TestMatchRequestValidate(t *testing.T) {
	Convey("Given a match request", t, func() {
		req := types.MatchRequest{
			Students:    []model.Candidate{student()},
			Internships: []model.Opportunity{internship()},
		}

		Convey("A well-formed request passes", func() {
			So(req.Validate(), ShouldBeNil)
		})

		Convey("A nested record violation is reported with its path", func() {
			req.Internships[0].FilledPositions = 5
			err := req.Validate()
			So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Internships[0].FilledPositions")
		})

		Convey("A padded student id is rejected", func() {
			req.Students[0].ID = "S1 "
			err := req.Validate()
			So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Students[0].ID")
		})

		Convey("An out-of-range threshold is rejected", func() {
			threshold := 1.5
			req.MinScoreThreshold = &threshold
			So(errors.Is(req.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("An empty student list is rejected", func() {
			req.Students = nil
			So(errors.Is(req.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestSingleAndOptimizeValidate(t *testing.T) {
	Convey("Given single and optimize requests", t, func() {
		Convey("A single request validates the embedded student", func() {
			s := student()
			s.Skills = []string{" "}
			req := types.SingleMatchRequest{Student: s, Internships: []model.Opportunity{internship()}}
			So(errors.Is(req.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("An optimize request accepts empty lists", func() {
			req := types.OptimizeRequest{Students: []model.Candidate{}, Internships: []model.Opportunity{}}
			So(req.Validate(), ShouldBeNil)
		})
	})
}

func TestJobStatus(t *testing.T) {
	Convey("Only done and failed are terminal", t, func() {
		So(types.JobDone.Terminal(), ShouldBeTrue)
		So(types.JobFailed.Terminal(), ShouldBeTrue)
		So(types.JobPending.Terminal(), ShouldBeFalse)
		So(types.JobRunning.Terminal(), ShouldBeFalse)
	})
}
