package config

import (
	"fmt"
	"strings"

	"github.com/okian/placement/internal/domain/model"
)

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	}
	if c.ScoringWorkers < 1 {
		return fmt.Errorf("%w: scoring_workers must be at least 1", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	}
	if c.JobTimeoutMS < 1 {
		return fmt.Errorf("%w: job_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst < 1) {
		return fmt.Errorf("%w: rate limit needs rps >= 0 and burst >= 1", ErrInvalidConfig)
	}
	if err := c.ScoringWeights().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("%w: min_score %v outside [0,1]", ErrInvalidConfig, c.MinScore)
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}
	return c.validateBackends()
}

func (c *Config) validatePolicy() error {
	p := c.ScoringPolicy()
	for _, tier := range model.QualificationTiers {
		if r, ok := p.QualificationRanks[tier]; !ok || r <= 0 {
			return fmt.Errorf("%w: qualification_ranks.%s must be a positive integer", ErrInvalidConfig, tier)
		}
	}
	for tier := range p.QualificationRanks {
		if !tier.Valid() {
			return fmt.Errorf("%w: unknown qualification tier %q", ErrInvalidConfig, tier)
		}
	}
	for _, cat := range p.PriorityCategories {
		if !cat.Valid() {
			return fmt.Errorf("%w: unknown priority category %q", ErrInvalidConfig, cat)
		}
	}
	for _, g := range p.PriorityGeographies {
		if !g.Valid() {
			return fmt.Errorf("%w: unknown priority geography %q", ErrInvalidConfig, g)
		}
	}
	return nil
}

func (c *Config) validateBackends() error {
	switch c.Embedding.Provider {
	case ProviderHash:
	case ProviderGemini:
		if strings.TrimSpace(c.Embedding.APIKey) == "" {
			return fmt.Errorf("%w: embedding.api_key is required for the gemini provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.TimeoutMS < 1 {
		return fmt.Errorf("%w: embedding.timeout_ms must be positive", ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("%w: store.dsn is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	return nil
}
