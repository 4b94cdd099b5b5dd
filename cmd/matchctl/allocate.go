package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/placement/internal/domain/types"
)

func newAllocateCmd(root *rootOptions) *cobra.Command {
	var (
		fixture string
		noBoost bool
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate students to internships under capacity",
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
			boost := !noBoost
			res, err := svc.Optimize(ctx, types.OptimizeRequest{
				Students:       set.Students,
				Internships:    set.Internships,
				DiversityBoost: &boost,
			})
			if err != nil {
				return err
			}
			return root.emit(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&fixture, "fixture", "f", "", "Fixture file (required)")
	cmd.Flags().BoolVar(&noBoost, "no-boost", false, "Disable the equity boost")
	return cmd
}
