// Package model contains the records the matching engine consumes and produces.
package model

// Candidate is a student profile. Records are validated on construction and
// treated as read-only afterwards.
type Candidate struct {
	ID                 string            `json:"student_id" yaml:"student_id" validate:"required,nonblank,trimmed"`
	Name               string            `json:"name" yaml:"name" validate:"required"`
	Skills             []string          `json:"skills" yaml:"skills" validate:"required,min=1,dive,nonblank"`
	Qualification      QualificationTier `json:"qualification" yaml:"qualification" validate:"required,oneof=DIPLOMA UNDERGRADUATE POSTGRADUATE DOCTORATE"`
	FieldOfStudy       string            `json:"field_of_study,omitempty" yaml:"field_of_study,omitempty"`
	AcademicScore      float64           `json:"cgpa" yaml:"cgpa" validate:"gte=0,lte=10"`
	PreferredLocations []string          `json:"location_preference" yaml:"location_preference" validate:"required,min=1,dive,nonblank"`
	SectorInterests    []string          `json:"sector_interests" yaml:"sector_interests" validate:"required,min=1,dive,nonblank"`
	EquityCategory     EquityCategory    `json:"social_category" yaml:"social_category" validate:"required,oneof=GENERAL OBC SC ST EWS"`
	Geography          GeographyClass    `json:"district_type" yaml:"district_type" validate:"required,oneof=URBAN RURAL ASPIRATIONAL"`
	PriorPlacements    int               `json:"past_internships" yaml:"past_internships" validate:"gte=0"`
	Languages          []string          `json:"languages,omitempty" yaml:"languages,omitempty"`
	Certifications     []string          `json:"certifications,omitempty" yaml:"certifications,omitempty"`
}

// NewCandidate validates c and returns a copy that shares no slices with the
// caller.
func NewCandidate(c Candidate) (Candidate, error) {
	if err := c.Validate(); err != nil {
		return Candidate{}, err
	}
	return c.clone(), nil
}

// Validate checks every construction invariant.
func (c Candidate) Validate() error {
	return ValidateStruct("candidate", c.ID, c)
}

func (c Candidate) clone() Candidate {
	out := c
	out.Skills = cloneStrings(c.Skills)
	out.PreferredLocations = cloneStrings(c.PreferredLocations)
	out.SectorInterests = cloneStrings(c.SectorInterests)
	out.Languages = cloneStrings(c.Languages)
	out.Certifications = cloneStrings(c.Certifications)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
