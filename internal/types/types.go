// Package types provides the Go structs for the gig attributes edited by the wizard.
// GigFields is the full field state of one gig; GigPatch is its partial form used for
// field updates and for the locally persisted draft blob.
package types

import (
	"slices"
	"time"
)

// CompType is the compensation offered for a gig.
type CompType string

const (
	CompTFP      CompType = "TFP"
	CompPaid     CompType = "PAID"
	CompExpenses CompType = "EXPENSES"
	CompOther    CompType = "OTHER"
)

// RequiresDetails reports whether the compensation type needs a free-text description.
func (c CompType) RequiresDetails() bool {
	return c == CompPaid || c == CompExpenses
}

// BudgetType qualifies the budget range.
type BudgetType string

const (
	BudgetHourly     BudgetType = "hourly"
	BudgetPerProject BudgetType = "per_project"
	BudgetPerDay     BudgetType = "per_day"
	BudgetTotal      BudgetType = "total"
)

// Purpose is the kind of shoot.
type Purpose string

const (
	PurposePortfolio    Purpose = "PORTFOLIO"
	PurposeCommercial   Purpose = "COMMERCIAL"
	PurposeEditorial    Purpose = "EDITORIAL"
	PurposeFashion      Purpose = "FASHION"
	PurposeBeauty       Purpose = "BEAUTY"
	PurposeLifestyle    Purpose = "LIFESTYLE"
	PurposeWedding      Purpose = "WEDDING"
	PurposeEvent        Purpose = "EVENT"
	PurposeProduct      Purpose = "PRODUCT"
	PurposeArchitecture Purpose = "ARCHITECTURE"
	PurposeStreet       Purpose = "STREET"
	PurposeConceptual   Purpose = "CONCEPTUAL"
	PurposeOther        Purpose = "OTHER"
)

// Status is the publication status of a gig.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusClosed    Status = "CLOSED"
	StatusCompleted Status = "COMPLETED"
)

// RoleTag is one "looking for" selection, e.g. "MODELS" or "PHOTOGRAPHERS".
type RoleTag string

// Range is a numeric range whose bounds are independently nullable.
// min <= max is only checked when the wizard validates, never on assignment.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Inverted reports whether both bounds are present and min exceeds max.
func (r Range) Inverted() bool {
	return r.Min != nil && r.Max != nil && *r.Min > *r.Max
}

func (r Range) clone() Range {
	out := Range{}
	if r.Min != nil {
		v := *r.Min
		out.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		out.Max = &v
	}
	return out
}

// Choice is a required-vs-preferred pair of string sets.
type Choice struct {
	Required  []string `json:"required"`
	Preferred []string `json:"preferred"`
}

func (c Choice) clone() Choice {
	return Choice{Required: slices.Clone(c.Required), Preferred: slices.Clone(c.Preferred)}
}

// Toggle is a required-with-preferred-values attribute (eye colour, hair colour, sizes).
type Toggle struct {
	Required  bool     `json:"required"`
	Preferred []string `json:"preferred"`
}

// Allowance records whether a trait is allowed and whether it is required.
type Allowance struct {
	Allowed  bool `json:"allowed"`
	Required bool `json:"required"`
}

// Measurements records whether measurements are required and which ones.
type Measurements struct {
	Required bool    `json:"required"`
	Specific *string `json:"specific"`
}

// PhysicalPreferences holds physical attribute requirements.
type PhysicalPreferences struct {
	HeightRange   Range        `json:"height_range"`
	Measurements  Measurements `json:"measurements"`
	EyeColor      Toggle       `json:"eye_color"`
	HairColor     Toggle       `json:"hair_color"`
	Tattoos       Allowance    `json:"tattoos"`
	Piercings     Allowance    `json:"piercings"`
	ClothingSizes Toggle       `json:"clothing_sizes"`
}

// ProfessionalPreferences holds skill, equipment and software requirements.
type ProfessionalPreferences struct {
	ExperienceYears   Range  `json:"experience_years"`
	Specializations   Choice `json:"specializations"`
	Equipment         Choice `json:"equipment"`
	Software          Choice `json:"software"`
	TalentCategories  Choice `json:"talent_categories"`
	PortfolioRequired bool   `json:"portfolio_required"`
}

// AvailabilityPreferences holds travel and rate requirements.
type AvailabilityPreferences struct {
	TravelRequired  bool     `json:"travel_required"`
	TravelRadiusKm  *float64 `json:"travel_radius_km"`
	HourlyRateRange Range    `json:"hourly_rate_range"`
}

// OtherPreferences holds age, language and free-text requirements.
type OtherPreferences struct {
	AgeRange               Range  `json:"age_range"`
	Languages              Choice `json:"languages"`
	AdditionalRequirements string `json:"additional_requirements"`
}

// ApplicantPreferences is the nested preferences record edited on the Preferences step.
type ApplicantPreferences struct {
	Physical     PhysicalPreferences     `json:"physical"`
	Professional ProfessionalPreferences `json:"professional"`
	Availability AvailabilityPreferences `json:"availability"`
	Other        OtherPreferences        `json:"other"`
}

// DefaultApplicantPreferences returns the preferences a new gig starts with.
func DefaultApplicantPreferences() ApplicantPreferences {
	minAge := 18.0
	return ApplicantPreferences{
		Physical: PhysicalPreferences{
			Tattoos:   Allowance{Allowed: true},
			Piercings: Allowance{Allowed: true},
		},
		Other: OtherPreferences{
			AgeRange:  Range{Min: &minAge},
			Languages: Choice{Required: []string{"English"}},
		},
	}
}

// Clone returns a deep copy.
func (p ApplicantPreferences) Clone() ApplicantPreferences {
	out := p
	out.Physical.HeightRange = p.Physical.HeightRange.clone()
	if p.Physical.Measurements.Specific != nil {
		s := *p.Physical.Measurements.Specific
		out.Physical.Measurements.Specific = &s
	}
	out.Physical.EyeColor.Preferred = slices.Clone(p.Physical.EyeColor.Preferred)
	out.Physical.HairColor.Preferred = slices.Clone(p.Physical.HairColor.Preferred)
	out.Physical.ClothingSizes.Preferred = slices.Clone(p.Physical.ClothingSizes.Preferred)

	out.Professional.ExperienceYears = p.Professional.ExperienceYears.clone()
	out.Professional.Specializations = p.Professional.Specializations.clone()
	out.Professional.Equipment = p.Professional.Equipment.clone()
	out.Professional.Software = p.Professional.Software.clone()
	out.Professional.TalentCategories = p.Professional.TalentCategories.clone()

	if p.Availability.TravelRadiusKm != nil {
		v := *p.Availability.TravelRadiusKm
		out.Availability.TravelRadiusKm = &v
	}
	out.Availability.HourlyRateRange = p.Availability.HourlyRateRange.clone()

	out.Other.AgeRange = p.Other.AgeRange.clone()
	out.Other.Languages = p.Other.Languages.clone()
	return out
}

// GigFields is the complete field state of a gig being created or edited.
type GigFields struct {
	Title                string               `json:"title"`
	Description          string               `json:"description"`
	LookingFor           []RoleTag            `json:"looking_for"`
	Purpose              Purpose              `json:"purpose"`
	CompType             CompType             `json:"comp_type"`
	CompDetails          string               `json:"comp_details"`
	BudgetMin            *float64             `json:"budget_min"`
	BudgetMax            *float64             `json:"budget_max"`
	BudgetType           BudgetType           `json:"budget_type"`
	Location             string               `json:"location"`
	City                 string               `json:"city"`
	Country              string               `json:"country"`
	StartDate            *time.Time           `json:"start_date"`
	EndDate              *time.Time           `json:"end_date"`
	ApplicationDeadline  *time.Time           `json:"application_deadline"`
	MaxApplicants        int                  `json:"max_applicants"`
	UsageRights          []string             `json:"usage_rights"`
	SafetyNotes          string               `json:"safety_notes"`
	MoodboardID          string               `json:"moodboard_id"`
	Status               Status               `json:"status"`
	ApplicantPreferences ApplicantPreferences `json:"applicant_preferences"`
}

// NewGigFields returns the field state a fresh create flow starts from.
func NewGigFields() GigFields {
	return GigFields{
		Purpose:              PurposePortfolio,
		CompType:             CompTFP,
		MaxApplicants:        10,
		Status:               StatusDraft,
		ApplicantPreferences: DefaultApplicantPreferences(),
	}
}

// BudgetRange returns the budget bounds as a Range.
func (f GigFields) BudgetRange() Range {
	return Range{Min: f.BudgetMin, Max: f.BudgetMax}
}

// Clone returns a deep copy so snapshots never alias live state.
func (f GigFields) Clone() GigFields {
	out := f
	out.LookingFor = slices.Clone(f.LookingFor)
	out.UsageRights = slices.Clone(f.UsageRights)
	out.BudgetMin = cloneFloat(f.BudgetMin)
	out.BudgetMax = cloneFloat(f.BudgetMax)
	out.StartDate = cloneTime(f.StartDate)
	out.EndDate = cloneTime(f.EndDate)
	out.ApplicationDeadline = cloneTime(f.ApplicationDeadline)
	out.ApplicantPreferences = f.ApplicantPreferences.Clone()
	return out
}

// NormalizeRoleTags collapses duplicates and sorts, giving role tags set semantics.
func NormalizeRoleTags(tags []RoleTag) []RoleTag {
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// NormalizeSet collapses duplicate strings while keeping first-seen order.
func NormalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
