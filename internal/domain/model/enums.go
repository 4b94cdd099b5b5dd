package model

// QualificationTier is an ordinal education level.
type QualificationTier string

// Qualification tiers, lowest first.
const (
	TierDiploma       QualificationTier = "DIPLOMA"
	TierUndergraduate QualificationTier = "UNDERGRADUATE"
	TierPostgraduate  QualificationTier = "POSTGRADUATE"
	TierDoctorate     QualificationTier = "DOCTORATE"
)

// QualificationTiers lists every tier in ascending order.
var QualificationTiers = []QualificationTier{TierDiploma, TierUndergraduate, TierPostgraduate, TierDoctorate}

// Valid reports whether t is a known tier.
func (t QualificationTier) Valid() bool {
	for _, known := range QualificationTiers {
		if t == known {
			return true
		}
	}
	return false
}

// EquityCategory is the social category a candidate declares.
type EquityCategory string

const (
	CategoryGeneral EquityCategory = "GENERAL"
	CategoryOBC     EquityCategory = "OBC"
	CategorySC      EquityCategory = "SC"
	CategoryST      EquityCategory = "ST"
	CategoryEWS     EquityCategory = "EWS"
)

// EquityCategories lists every category.
var EquityCategories = []EquityCategory{CategoryGeneral, CategoryOBC, CategorySC, CategoryST, CategoryEWS}

// Valid reports whether c is a known category.
func (c EquityCategory) Valid() bool {
	for _, known := range EquityCategories {
		if c == known {
			return true
		}
	}
	return false
}

// GeographyClass classifies the candidate's home district.
type GeographyClass string

const (
	GeographyUrban        GeographyClass = "URBAN"
	GeographyRural        GeographyClass = "RURAL"
	GeographyAspirational GeographyClass = "ASPIRATIONAL"
)

// GeographyClasses lists every geography class.
var GeographyClasses = []GeographyClass{GeographyUrban, GeographyRural, GeographyAspirational}

// Valid reports whether g is a known geography class.
func (g GeographyClass) Valid() bool {
	for _, known := range GeographyClasses {
		if g == known {
			return true
		}
	}
	return false
}

// Factor names used as keys of MatchScore.Explanation.
const (
	FactorSkills        = "skills"
	FactorQualification = "qualification"
	FactorLocation      = "location"
	FactorSector        = "sector"
	FactorDiversity     = "diversity"
)

// Factors lists the factor names in composite order.
var Factors = []string{FactorSkills, FactorQualification, FactorLocation, FactorSector, FactorDiversity}
