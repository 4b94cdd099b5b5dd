package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "PLACEMENT_"
	envConfigFile = "PLACEMENT_CONFIG"
)

// sections are the nested key groups; env names map their first underscore
// after the section name to the koanf delimiter.
var sections = []string{"qualification_ranks", "weights", "embedding", "store"} //nolint:gochecknoglobals // static key table

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PLACEMENT_CONFIG is set
//  3. env (prefix PLACEMENT_), e.g. PLACEMENT_WEIGHTS_SKILL -> weights.skill
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	k.Delete("config")

	// Unmarshal into a copy. Lists that are set replace the defaults rather
	// than being merged element-wise.
	cfg := *base
	if k.Exists("priority_categories") {
		cfg.PriorityCategories = nil
	}
	if k.Exists("priority_geographies") {
		cfg.PriorityGeographies = nil
	}
	cfg.QualificationRanks = make(map[string]int, len(base.QualificationRanks))
	for tier, r := range base.QualificationRanks {
		cfg.QualificationRanks[tier] = r
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	normalizeRanks(cfg.QualificationRanks)
	cfg.PriorityCategories = splitList(cfg.PriorityCategories)
	cfg.PriorityGeographies = splitList(cfg.PriorityGeographies)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range sections {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}

// normalizeRanks upper-cases tier names. Overrides arrive lower-cased from
// env and win over the upper-case defaults.
func normalizeRanks(ranks map[string]int) {
	for tier, r := range ranks {
		upper := strings.ToUpper(tier)
		if upper != tier {
			ranks[upper] = r
			delete(ranks, tier)
		}
	}
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
