package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/placement/internal/config"
	"github.com/okian/placement/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxMatches, convey.ShouldEqual, 10)
			convey.So(cfg.MinScore, convey.ShouldEqual, 0.5)
			convey.So(cfg.EquityBoost, convey.ShouldBeTrue)
			convey.So(cfg.Weights.Skill, convey.ShouldEqual, 0.35)
			convey.So(cfg.Embedding.Provider, convey.ShouldEqual, config.ProviderHash)
			convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then it converts into domain settings", func() {
			p := cfg.ScoringPolicy()
			convey.So(p.QualificationRanks[model.TierDoctorate], convey.ShouldEqual, 4)
			convey.So(p.PriorityCategories, convey.ShouldContain, model.CategorySC)
			convey.So(cfg.ScoringWeights().Validate(), convey.ShouldBeNil)
			convey.So(cfg.MatchOptions().MaxMatches, convey.ShouldEqual, 10)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.JobTimeoutMS, convey.ShouldEqual, 60_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PLACEMENT_ADDR", ":8080")
			_ = os.Setenv("PLACEMENT_QUEUE_SIZE", "50")
			_ = os.Setenv("PLACEMENT_WORKER_COUNT", "3")
			_ = os.Setenv("PLACEMENT_EQUITY_BOOST", "false")
			_ = os.Setenv("PLACEMENT_EMBEDDING_CACHE_SIZE", "42")
			_ = os.Setenv("PLACEMENT_QUALIFICATION_RANKS_DOCTORATE", "9")
			_ = os.Setenv("PLACEMENT_PRIORITY_CATEGORIES", "SC,ST")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 50)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.EquityBoost, convey.ShouldBeFalse)
				convey.So(cfg.Embedding.CacheSize, convey.ShouldEqual, 42)
				convey.So(cfg.QualificationRanks["DOCTORATE"], convey.ShouldEqual, 9)
				convey.So(cfg.QualificationRanks["DIPLOMA"], convey.ShouldEqual, 1)
				convey.So(cfg.PriorityCategories, convey.ShouldResemble, []string{"SC", "ST"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
worker_count: 2
weights:
  skill: 0.4
  qualification: 0.2
  location: 0.15
  sector: 0.15
  diversity: 0.1
priority_geographies:
  - RURAL
store:
  driver: sqlite
  dsn: "file:jobs.db"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PLACEMENT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.Weights.Skill, convey.ShouldEqual, 0.4)
				convey.So(cfg.PriorityGeographies, convey.ShouldResemble, []string{"RURAL"})
				convey.So(cfg.Store.Driver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1_000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 2\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PLACEMENT_CONFIG", tmpFile)
			_ = os.Setenv("PLACEMENT_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PLACEMENT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PLACEMENT_CONFIG", "/non/existent/placement.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PLACEMENT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PLACEMENT_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()

		convey.Convey("When weights do not sum to one", func() {
			cfg := config.New(ctx)
			cfg.Weights.Diversity = 0.5
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the embedding provider is unknown", func() {
			cfg := config.New(ctx)
			cfg.Embedding.Provider = "word2vec"
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "unknown embedding provider")
		})

		convey.Convey("When gemini is selected without a key", func() {
			cfg := config.New(ctx)
			cfg.Embedding.Provider = config.ProviderGemini
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the store driver is unknown", func() {
			cfg := config.New(ctx)
			cfg.Store.Driver = "postgres"
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "unknown store driver")
		})

		convey.Convey("When a tier rank is missing", func() {
			cfg := config.New(ctx)
			delete(cfg.QualificationRanks, "DOCTORATE")
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "qualification_ranks.DOCTORATE")
		})

		convey.Convey("When a priority category is unknown", func() {
			cfg := config.New(ctx)
			cfg.PriorityCategories = []string{"VIP"}
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "unknown priority category")
		})

		convey.Convey("When worker counts are zero", func() {
			cfg := config.New(ctx)
			cfg.WorkerCount = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"PLACEMENT_CONFIG",
		"PLACEMENT_ADDR",
		"PLACEMENT_QUEUE_SIZE",
		"PLACEMENT_WORKER_COUNT",
		"PLACEMENT_EQUITY_BOOST",
		"PLACEMENT_EMBEDDING_CACHE_SIZE",
		"PLACEMENT_QUALIFICATION_RANKS_DOCTORATE",
		"PLACEMENT_PRIORITY_CATEGORIES",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "placement-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
