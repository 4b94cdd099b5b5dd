// Package config defines service configuration and the conversions into
// domain settings.
package config

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/okian/placement/internal/domain/matching"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
)

// Embedding providers.
const (
	ProviderHash   = "hash"
	ProviderGemini = "gemini"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// APIKey, when set, is required in the X-API-Key header of /v1 requests.
	APIKey string `koanf:"api_key"`

	// WorkerCount sets the number of allocation job workers.
	WorkerCount int `koanf:"worker_count"`

	// ScoringWorkers bounds concurrent pair scoring per candidate.
	ScoringWorkers int `koanf:"scoring_workers"`

	// QueueSize bounds the allocation job queue.
	QueueSize int `koanf:"queue_size"`

	// JobTimeoutMS caps one allocation job.
	JobTimeoutMS int `koanf:"job_timeout_ms"`

	// RateLimitRPS and RateLimitBurst configure the /v1 token bucket.
	// Zero RPS disables rate limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	Weights WeightsConfig `koanf:"weights"`

	// MaxMatches, MinScore and EquityBoost are the ranking defaults.
	MaxMatches  int     `koanf:"max_matches"`
	MinScore    float64 `koanf:"min_score"`
	EquityBoost bool    `koanf:"equity_boost"`

	// QualificationRanks maps tier name to ordinal.
	QualificationRanks  map[string]int `koanf:"qualification_ranks"`
	PriorityCategories  []string       `koanf:"priority_categories"`
	PriorityGeographies []string       `koanf:"priority_geographies"`

	Embedding EmbeddingConfig `koanf:"embedding"`
	Store     StoreConfig     `koanf:"store"`
}

// WeightsConfig holds the composite factor weights.
type WeightsConfig struct {
	Skill         float64 `koanf:"skill"`
	Qualification float64 `koanf:"qualification"`
	Location      float64 `koanf:"location"`
	Sector        float64 `koanf:"sector"`
	Diversity     float64 `koanf:"diversity"`
}

// EmbeddingConfig selects and tunes the skill embedder.
type EmbeddingConfig struct {
	Provider  string `koanf:"provider"`
	Model     string `koanf:"model"`
	APIKey    string `koanf:"api_key"`
	Dimension int    `koanf:"dimension"`
	TimeoutMS int    `koanf:"timeout_ms"`
	CacheSize int    `koanf:"cache_size"`
}

// StoreConfig selects the job store.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// New returns a Config populated with defaults. The context is reserved for
// future remote sources and is currently unused.
func New(_ context.Context) *Config {
	w := scoring.DefaultWeights()
	p := scoring.DefaultPolicy()
	o := matching.DefaultOptions()

	ranks := make(map[string]int, len(p.QualificationRanks))
	for tier, r := range p.QualificationRanks {
		ranks[string(tier)] = r
	}
	categories := make([]string, 0, len(p.PriorityCategories))
	for _, c := range p.PriorityCategories {
		categories = append(categories, string(c))
	}
	geographies := make([]string, 0, len(p.PriorityGeographies))
	for _, g := range p.PriorityGeographies {
		geographies = append(geographies, string(g))
	}

	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		WorkerCount:    runtime.NumCPU(),
		ScoringWorkers: runtime.NumCPU() * 4,
		QueueSize:      1_000,
		JobTimeoutMS:   60_000,
		RateLimitRPS:   0,
		RateLimitBurst: 50,
		Weights: WeightsConfig{
			Skill:         w.Skill,
			Qualification: w.Qualification,
			Location:      w.Location,
			Sector:        w.Sector,
			Diversity:     w.Diversity,
		},
		MaxMatches:          o.MaxMatches,
		MinScore:            o.MinScore,
		EquityBoost:         o.EquityBoost,
		QualificationRanks:  ranks,
		PriorityCategories:  categories,
		PriorityGeographies: geographies,
		Embedding: EmbeddingConfig{
			Provider:  ProviderHash,
			Dimension: 384,
			TimeoutMS: 5_000,
			CacheSize: 10_000,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
	}
}

// ScoringWeights converts the configured weights.
func (c *Config) ScoringWeights() scoring.Weights {
	return scoring.Weights{
		Skill:         c.Weights.Skill,
		Qualification: c.Weights.Qualification,
		Location:      c.Weights.Location,
		Sector:        c.Weights.Sector,
		Diversity:     c.Weights.Diversity,
	}
}

// ScoringPolicy converts tier ranks and priority sets.
func (c *Config) ScoringPolicy() scoring.Policy {
	p := scoring.Policy{
		QualificationRanks: make(map[model.QualificationTier]int, len(c.QualificationRanks)),
	}
	for tier, r := range c.QualificationRanks {
		p.QualificationRanks[model.QualificationTier(strings.ToUpper(tier))] = r
	}
	for _, cat := range c.PriorityCategories {
		p.PriorityCategories = append(p.PriorityCategories, model.EquityCategory(strings.ToUpper(strings.TrimSpace(cat))))
	}
	for _, g := range c.PriorityGeographies {
		p.PriorityGeographies = append(p.PriorityGeographies, model.GeographyClass(strings.ToUpper(strings.TrimSpace(g))))
	}
	return p
}

// MatchOptions returns the ranking defaults.
func (c *Config) MatchOptions() matching.Options {
	return matching.Options{
		MaxMatches:  c.MaxMatches,
		MinScore:    c.MinScore,
		EquityBoost: c.EquityBoost,
	}
}

// JobTimeout returns the per-job deadline.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutMS) * time.Millisecond
}

// EmbedTimeout returns the per-call embedding deadline.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutMS) * time.Millisecond
}
