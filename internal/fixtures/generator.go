// Package fixtures generates, loads and saves candidate and opportunity sets
// for local runs of the matching engine.
package fixtures

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/placement/internal/domain/model"
)

// Generator defaults.
const (
	DefaultCandidates    = 50
	DefaultOpportunities = 10
	DefaultMaxCapacity   = 5
	DefaultSeed          = 42
)

// Value pools the generator samples from.
var (
	skillPool = []string{
		"Python", "Go", "Java", "JavaScript", "SQL", "Machine Learning",
		"Data Analysis", "Excel", "Communication", "Project Management",
		"React", "Docker", "Kubernetes", "Statistics", "Accounting",
		"Marketing", "Design", "Networking", "Linux", "Public Speaking",
	}
	locationPool = []string{
		"Delhi", "Mumbai", "Bangalore", "Chennai", "Kolkata",
		"Hyderabad", "Pune", "Jaipur", "Lucknow", "Remote",
	}
	sectorPool = []string{
		"Technology", "Finance", "Healthcare", "Education", "Manufacturing",
		"Retail", "Energy", "Agriculture", "Government",
	}
	companyPool = []string{
		"Acme Labs", "Bharat Works", "Northwind", "Sunrise Health",
		"Indus Finance", "GreenGrid", "Kisan Tech", "Civic Systems",
	}
	namePool = []string{
		"Aarav", "Diya", "Ishaan", "Kavya", "Rohan", "Ananya", "Vihaan",
		"Meera", "Arjun", "Sara", "Kabir", "Nisha",
	}
	// Roughly the shares seen in real applicant pools.
	categoryWeights = []struct {
		category model.EquityCategory
		weight   float64
	}{
		{model.CategoryGeneral, 0.4},
		{model.CategoryOBC, 0.27},
		{model.CategorySC, 0.15},
		{model.CategoryST, 0.08},
		{model.CategoryEWS, 0.1},
	}
)

// Params controls a generated set.
type Params struct {
	Candidates    int
	Opportunities int
	MaxCapacity   int
	Seed          uint64
}

// DefaultParams returns the generator defaults.
func DefaultParams() Params {
	return Params{
		Candidates:    DefaultCandidates,
		Opportunities: DefaultOpportunities,
		MaxCapacity:   DefaultMaxCapacity,
		Seed:          DefaultSeed,
	}
}

// Set is a fixture file: the inputs of one matching run.
type Set struct {
	Students    []model.Candidate   `yaml:"students" json:"students"`
	Internships []model.Opportunity `yaml:"internships" json:"internships"`
}

// Generate builds a valid, reproducible set. The same Params always yield the
// same records, ids included.
func Generate(p Params) (Set, error) {
	if p.Candidates < 0 || p.Opportunities < 0 || p.MaxCapacity < 1 {
		return Set{}, fmt.Errorf("%w: candidates=%d opportunities=%d max_capacity=%d",
			ErrInvalidParams, p.Candidates, p.Opportunities, p.MaxCapacity)
	}

	src := rand.NewChaCha8(seedBytes(p.Seed))
	rng := rand.New(src)
	g := &generator{rng: rng, ids: src}

	set := Set{
		Students:    make([]model.Candidate, 0, p.Candidates),
		Internships: make([]model.Opportunity, 0, p.Opportunities),
	}
	for i := 0; i < p.Candidates; i++ {
		c, err := model.NewCandidate(g.candidate(i))
		if err != nil {
			return Set{}, fmt.Errorf("generate student %d: %w", i, err)
		}
		set.Students = append(set.Students, c)
	}
	for i := 0; i < p.Opportunities; i++ {
		o, err := model.NewOpportunity(g.opportunity(i, p.MaxCapacity))
		if err != nil {
			return Set{}, fmt.Errorf("generate internship %d: %w", i, err)
		}
		set.Internships = append(set.Internships, o)
	}
	return set, nil
}

type generator struct {
	rng *rand.Rand
	ids *rand.ChaCha8
}

func (g *generator) id(prefix string) string {
	u, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		// ChaCha8 reads never fail.
		panic(err)
	}
	return prefix + "-" + u.String()[:8]
}

func (g *generator) candidate(i int) model.Candidate {
	tier := model.QualificationTiers[g.rng.IntN(len(model.QualificationTiers))]
	return model.Candidate{
		ID:                 g.id("S"),
		Name:               namePool[g.rng.IntN(len(namePool))] + " " + strconv.Itoa(i+1),
		Skills:             g.sample(skillPool, 2, 6),
		Qualification:      tier,
		AcademicScore:      math.Round((5+g.rng.Float64()*5)*100) / 100,
		PreferredLocations: g.sample(locationPool, 1, 3),
		SectorInterests:    g.sample(sectorPool, 1, 3),
		EquityCategory:     g.category(),
		Geography:          model.GeographyClasses[g.rng.IntN(len(model.GeographyClasses))],
		PriorPlacements:    g.rng.IntN(3),
	}
}

func (g *generator) opportunity(i, maxCapacity int) model.Opportunity {
	capacity := 1 + g.rng.IntN(maxCapacity)
	stipend := float64(5_000 + 1_000*g.rng.IntN(26))
	sector := sectorPool[g.rng.IntN(len(sectorPool))]
	return model.Opportunity{
		ID:                     g.id("I"),
		CompanyName:            companyPool[g.rng.IntN(len(companyPool))],
		Title:                  sector + " Intern " + strconv.Itoa(i+1),
		RequiredSkills:         g.sample(skillPool, 2, 5),
		PreferredQualification: model.QualificationTiers[g.rng.IntN(len(model.QualificationTiers))],
		Sector:                 sector,
		Location:               locationPool[g.rng.IntN(len(locationPool))],
		Stipend:                &stipend,
		DurationMonths:         2 + g.rng.IntN(5),
		Capacity:               capacity,
		FilledPositions:        g.rng.IntN(capacity),
		MinAcademicScore:       float64(5 + g.rng.IntN(3)),
	}
}

// sample returns between lo and hi distinct values from pool.
func (g *generator) sample(pool []string, lo, hi int) []string {
	n := lo + g.rng.IntN(hi-lo+1)
	idx := g.rng.Perm(len(pool))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func (g *generator) category() model.EquityCategory {
	x := g.rng.Float64()
	for _, cw := range categoryWeights {
		if x < cw.weight {
			return cw.category
		}
		x -= cw.weight
	}
	return model.CategoryGeneral
}

func seedBytes(seed uint64) [32]byte {
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(seed >> (8 * i))
	}
	return b
}
