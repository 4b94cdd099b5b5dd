package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/placement/internal/client"
	"github.com/okian/placement/internal/domain/types"
)

func newSubmitCmd(root *rootOptions) *cobra.Command {
	var (
		fixture  string
		baseURL  string
		apiKey   string
		noWait   bool
		noBoost  bool
		interval time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an allocation job to a running server",
		Long:  "Submits the fixture as an asynchronous allocation job and, unless --no-wait is set, polls until it finishes.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := loadFixture(fixture)
			if err != nil {
				return err
			}
			c := client.New(baseURL,
				client.WithAPIKey(apiKey),
				client.WithPollInterval(interval),
				client.WithTimeout(10*time.Second),
			)

			ctx := cmd.Context()
			boost := !noBoost
			id, err := c.Submit(ctx, types.OptimizeRequest{
				Students:       set.Students,
				Internships:    set.Internships,
				DiversityBoost: &boost,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Submitted job %s\n", id)
			if noWait {
				return root.emit(cmd, types.Job{ID: id, Status: types.JobPending})
			}

			wctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			job, err := c.Wait(wctx, id)
			if err != nil {
				return fmt.Errorf("job %s: %w", id, err)
			}
			return root.emit(cmd, job)
		},
	}
	cmd.Flags().StringVarP(&fixture, "fixture", "f", "", "Fixture file (required)")
	cmd.Flags().StringVar(&baseURL, "url", client.DefaultBaseURL, "Server base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key sent as X-API-Key")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return after the job is accepted")
	cmd.Flags().BoolVar(&noBoost, "no-boost", false, "Disable the equity boost")
	cmd.Flags().DurationVar(&interval, "poll-interval", 200*time.Millisecond, "Delay between status polls")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Give up waiting after this long")
	return cmd
}
