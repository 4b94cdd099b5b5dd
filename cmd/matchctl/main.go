// Package main implements matchctl, a command line front end for the
// placement matching engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	service "github.com/okian/placement/internal/app"
	"github.com/okian/placement/internal/config"
	"github.com/okian/placement/internal/fixtures"
	"github.com/okian/placement/pkg/logger"
)

// configEnv names the variable config.Load reads the YAML path from.
const configEnv = "PLACEMENT_CONFIG"

type rootOptions struct {
	configPath string
	logLevel   string
	out        string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "matchctl",
		Short:         "Score, rank and allocate students to internships",
		Long:          "matchctl generates fixture sets and runs the placement matching engine on them, locally or against a running service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr(), false); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file (overrides "+configEnv+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&opts.out, "out", "o", "", "Write output to this file instead of stdout")

	root.AddCommand(
		newGenerateCmd(opts),
		newRankCmd(opts),
		newAllocateCmd(opts),
		newAnalyzeCmd(opts),
		newSubmitCmd(opts),
	)
	return root
}

// loadConfig resolves configuration the same way the server does.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	if o.configPath != "" {
		if err := os.Setenv(configEnv, o.configPath); err != nil {
			return nil, fmt.Errorf("set %s: %w", configEnv, err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// localService builds an unstarted service for synchronous matching.
func (o *rootOptions) localService(ctx context.Context) (*service.Service, error) {
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return service.New(ctx, cfg, service.WithLogger(logger.Named("matchctl")))
}

func loadFixture(path string) (fixtures.Set, error) {
	if path == "" {
		return fixtures.Set{}, fmt.Errorf("--fixture is required")
	}
	return fixtures.Load(path)
}

// emit writes v as indented JSON to --out or the command's stdout.
func (o *rootOptions) emit(cmd *cobra.Command, v any) error {
	var w io.Writer = cmd.OutOrStdout()
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", o.out, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
