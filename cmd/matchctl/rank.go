package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/placement/internal/domain/types"
)

type rankOptions struct {
	fixture  string
	student  string
	maxMatch int
	minScore float64
	noBoost  bool
}

func newRankCmd(root *rootOptions) *cobra.Command {
	o := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank internships for one student or the whole fixture",
		Long: "Ranks internships per student. With --student the single-student rules apply " +
			"(no score threshold, equity boost on); otherwise every student is ranked with the configured defaults.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			set, err := loadFixture(o.fixture)
			if err != nil {
				return err
			}
			svc, err := root.localService(ctx)
			if err != nil {
				return err
			}

			if o.student != "" {
				st, ok := set.Find(o.student)
				if !ok {
					return fmt.Errorf("student %q not in fixture", o.student)
				}
				req := types.SingleMatchRequest{Student: st, Internships: set.Internships}
				if cmd.Flags().Changed("max") {
					req.MaxMatches = &o.maxMatch
				}
				res, err := svc.MatchSingle(ctx, req)
				if err != nil {
					return err
				}
				return root.emit(cmd, res)
			}

			req := types.MatchRequest{Students: set.Students, Internships: set.Internships}
			if cmd.Flags().Changed("max") {
				req.MaxMatchesPerStudent = &o.maxMatch
			}
			if cmd.Flags().Changed("min-score") {
				req.MinScoreThreshold = &o.minScore
			}
			if o.noBoost {
				boost := false
				req.DiversityBoost = &boost
			}
			res, err := svc.MatchBatch(ctx, req)
			if err != nil {
				return err
			}
			return root.emit(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&o.fixture, "fixture", "f", "", "Fixture file (required)")
	cmd.Flags().StringVarP(&o.student, "student", "s", "", "Rank only this student id")
	cmd.Flags().IntVar(&o.maxMatch, "max", 10, "Maximum matches per student (1-50)")
	cmd.Flags().Float64Var(&o.minScore, "min-score", 0.5, "Minimum overall score (batch only)")
	cmd.Flags().BoolVar(&o.noBoost, "no-boost", false, "Disable the equity boost (batch only)")
	return cmd
}
