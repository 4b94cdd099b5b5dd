package model

// Opportunity is an internship with finite capacity.
// FilledPositions never exceeds Capacity for a constructed record.
type Opportunity struct {
	ID                     string            `json:"internship_id" yaml:"internship_id" validate:"required,nonblank,trimmed"`
	CompanyName            string            `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	Title                  string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description            string            `json:"description,omitempty" yaml:"description,omitempty"`
	RequiredSkills         []string          `json:"required_skills" yaml:"required_skills" validate:"required,min=1,dive,nonblank"`
	PreferredQualification QualificationTier `json:"preferred_qualification" yaml:"preferred_qualification" validate:"required,oneof=DIPLOMA UNDERGRADUATE POSTGRADUATE DOCTORATE"`
	Sector                 string            `json:"sector" yaml:"sector" validate:"required,nonblank"`
	Location               string            `json:"location" yaml:"location" validate:"required,nonblank"`
	Stipend                *float64          `json:"stipend,omitempty" yaml:"stipend,omitempty" validate:"omitempty,gte=0"`
	DurationMonths         int               `json:"duration_months,omitempty" yaml:"duration_months,omitempty" validate:"omitempty,gte=1,lte=12"`
	Capacity               int               `json:"capacity" yaml:"capacity" validate:"gte=1"`
	FilledPositions        int               `json:"filled_positions" yaml:"filled_positions" validate:"gte=0,ltefield=Capacity"`
	MinAcademicScore       float64           `json:"min_cgpa" yaml:"min_cgpa" validate:"gte=0,lte=10"`
	PreferredFields        []string          `json:"preferred_fields,omitempty" yaml:"preferred_fields,omitempty"`
}

// NewOpportunity validates o and returns a copy that shares no slices with
// the caller.
func NewOpportunity(o Opportunity) (Opportunity, error) {
	if err := o.Validate(); err != nil {
		return Opportunity{}, err
	}
	out := o
	out.RequiredSkills = cloneStrings(o.RequiredSkills)
	out.PreferredFields = cloneStrings(o.PreferredFields)
	if o.Stipend != nil {
		s := *o.Stipend
		out.Stipend = &s
	}
	return out, nil
}

// Validate checks every construction invariant.
func (o Opportunity) Validate() error {
	return ValidateStruct("opportunity", o.ID, o)
}

// Remaining returns the number of open positions.
func (o Opportunity) Remaining() int {
	return o.Capacity - o.FilledPositions
}

// HasCapacity reports whether at least one position is open.
func (o Opportunity) HasCapacity() bool {
	return o.FilledPositions < o.Capacity
}
