package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/placement/internal/domain/types"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Rank every student and summarize the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			set, err := loadFixture(fixture)
			if err != nil {
				return err
			}
			svc, err := root.localService(ctx)
			if err != nil {
				return err
			}
			batch, err := svc.MatchBatch(ctx, types.MatchRequest{
				Students:    set.Students,
				Internships: set.Internships,
			})
			if err != nil {
				return err
			}
			report := svc.Analytics(ctx, types.AnalyticsRequest{MatchResults: batch.Results})
			return root.emit(cmd, report)
		},
	}
	cmd.Flags().StringVarP(&fixture, "fixture", "f", "", "Fixture file (required)")
	return cmd
}
