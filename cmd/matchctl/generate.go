package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/placement/internal/fixtures"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	p := fixtures.DefaultParams()
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a reproducible fixture set",
		Long:  "Generates valid students and internships from a seed and writes them as YAML to --out.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if root.out == "" {
				return fmt.Errorf("--out is required")
			}
			set, err := fixtures.Generate(p)
			if err != nil {
				return err
			}
			if err := fixtures.Save(root.out, set); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d students and %d internships to %s\n",
				len(set.Students), len(set.Internships), root.out)
			return nil
		},
	}
	cmd.Flags().IntVar(&p.Candidates, "students", p.Candidates, "Number of students")
	cmd.Flags().IntVar(&p.Opportunities, "internships", p.Opportunities, "Number of internships")
	cmd.Flags().IntVar(&p.MaxCapacity, "max-capacity", p.MaxCapacity, "Upper bound on internship capacity")
	cmd.Flags().Uint64Var(&p.Seed, "seed", p.Seed, "Random seed")
	return cmd
}
