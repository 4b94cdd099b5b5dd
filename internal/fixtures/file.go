package fixtures

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/placement/internal/domain/model"
)

// Load reads a YAML (or JSON) fixture and validates every record.
func Load(path string) (Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates fixture bytes.
func Parse(b []byte) (Set, error) {
	var raw Set
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Set{}, fmt.Errorf("decode fixture: %w", err)
	}

	set := Set{
		Students:    make([]model.Candidate, 0, len(raw.Students)),
		Internships: make([]model.Opportunity, 0, len(raw.Internships)),
	}
	for i, c := range raw.Students {
		valid, err := model.NewCandidate(c)
		if err != nil {
			return Set{}, fmt.Errorf("students[%d]: %w", i, err)
		}
		set.Students = append(set.Students, valid)
	}
	for i, o := range raw.Internships {
		valid, err := model.NewOpportunity(o)
		if err != nil {
			return Set{}, fmt.Errorf("internships[%d]: %w", i, err)
		}
		set.Internships = append(set.Internships, valid)
	}
	return set, nil
}

// Save writes set as YAML, replacing any existing file.
func Save(path string, set Set) error {
	b, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// Find returns the student with id.
func (s Set) Find(id string) (model.Candidate, bool) {
	for _, c := range s.Students {
		if c.ID == id {
			return c, true
		}
	}
	return model.Candidate{}, false
}
