package types

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// Nullable carries a value that may be explicitly cleared. A nil *Nullable in a
// GigPatch means "key absent"; a non-nil Nullable with a nil Value means "set to null".
type Nullable[T any] struct {
	Value *T
}

// Some wraps v as a present, non-null value.
func Some[T any](v T) *Nullable[T] {
	return &Nullable[T]{Value: &v}
}

// Null returns a present value that clears the field.
func Null[T any]() *Nullable[T] {
	return &Nullable[T]{}
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// GigPatch is a partial GigFields: every non-nil field is a present key.
type GigPatch struct {
	Title                *string                `json:"title,omitempty"`
	Description          *string                `json:"description,omitempty"`
	LookingFor           *[]RoleTag             `json:"looking_for,omitempty"`
	Purpose              *Purpose               `json:"purpose,omitempty"`
	CompType             *CompType              `json:"comp_type,omitempty"`
	CompDetails          *string                `json:"comp_details,omitempty"`
	BudgetMin            *Nullable[float64]     `json:"budget_min,omitempty"`
	BudgetMax            *Nullable[float64]     `json:"budget_max,omitempty"`
	BudgetType           *BudgetType            `json:"budget_type,omitempty"`
	Location             *string                `json:"location,omitempty"`
	City                 *string                `json:"city,omitempty"`
	Country              *string                `json:"country,omitempty"`
	StartDate            *Nullable[time.Time]   `json:"start_date,omitempty"`
	EndDate              *Nullable[time.Time]   `json:"end_date,omitempty"`
	ApplicationDeadline  *Nullable[time.Time]   `json:"application_deadline,omitempty"`
	MaxApplicants        *int                   `json:"max_applicants,omitempty"`
	UsageRights          *[]string              `json:"usage_rights,omitempty"`
	SafetyNotes          *string                `json:"safety_notes,omitempty"`
	MoodboardID          *string                `json:"moodboard_id,omitempty"`
	Status               *Status                `json:"status,omitempty"`
	ApplicantPreferences *ApplicantPreferences  `json:"applicant_preferences,omitempty"`
}

// nullableKeys are the patch keys whose literal JSON null means "present, cleared".
var nullableKeys = []string{"budget_min", "budget_max", "start_date", "end_date", "application_deadline"}

// UnmarshalJSON keeps explicit nulls on nullable keys as present values.
func (p *GigPatch) UnmarshalJSON(data []byte) error {
	type plain GigPatch
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = GigPatch(decoded)
	for _, key := range nullableKeys {
		v, ok := raw[key]
		if !ok || !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		switch key {
		case "budget_min":
			p.BudgetMin = Null[float64]()
		case "budget_max":
			p.BudgetMax = Null[float64]()
		case "start_date":
			p.StartDate = Null[time.Time]()
		case "end_date":
			p.EndDate = Null[time.Time]()
		case "application_deadline":
			p.ApplicationDeadline = Null[time.Time]()
		}
	}
	return nil
}

// Empty reports whether no key is present.
func (p GigPatch) Empty() bool {
	return len(p.Keys()) == 0
}

// Keys lists the present keys by their JSON name.
func (p GigPatch) Keys() []string {
	var keys []string
	add := func(present bool, key string) {
		if present {
			keys = append(keys, key)
		}
	}
	add(p.Title != nil, "title")
	add(p.Description != nil, "description")
	add(p.LookingFor != nil, "looking_for")
	add(p.Purpose != nil, "purpose")
	add(p.CompType != nil, "comp_type")
	add(p.CompDetails != nil, "comp_details")
	add(p.BudgetMin != nil, "budget_min")
	add(p.BudgetMax != nil, "budget_max")
	add(p.BudgetType != nil, "budget_type")
	add(p.Location != nil, "location")
	add(p.City != nil, "city")
	add(p.Country != nil, "country")
	add(p.StartDate != nil, "start_date")
	add(p.EndDate != nil, "end_date")
	add(p.ApplicationDeadline != nil, "application_deadline")
	add(p.MaxApplicants != nil, "max_applicants")
	add(p.UsageRights != nil, "usage_rights")
	add(p.SafetyNotes != nil, "safety_notes")
	add(p.MoodboardID != nil, "moodboard_id")
	add(p.Status != nil, "status")
	add(p.ApplicantPreferences != nil, "applicant_preferences")
	return keys
}

// Merge returns p with every key present in q overriding p's value.
func (p GigPatch) Merge(q GigPatch) GigPatch {
	out := p
	if q.Title != nil {
		out.Title = q.Title
	}
	if q.Description != nil {
		out.Description = q.Description
	}
	if q.LookingFor != nil {
		out.LookingFor = q.LookingFor
	}
	if q.Purpose != nil {
		out.Purpose = q.Purpose
	}
	if q.CompType != nil {
		out.CompType = q.CompType
	}
	if q.CompDetails != nil {
		out.CompDetails = q.CompDetails
	}
	if q.BudgetMin != nil {
		out.BudgetMin = q.BudgetMin
	}
	if q.BudgetMax != nil {
		out.BudgetMax = q.BudgetMax
	}
	if q.BudgetType != nil {
		out.BudgetType = q.BudgetType
	}
	if q.Location != nil {
		out.Location = q.Location
	}
	if q.City != nil {
		out.City = q.City
	}
	if q.Country != nil {
		out.Country = q.Country
	}
	if q.StartDate != nil {
		out.StartDate = q.StartDate
	}
	if q.EndDate != nil {
		out.EndDate = q.EndDate
	}
	if q.ApplicationDeadline != nil {
		out.ApplicationDeadline = q.ApplicationDeadline
	}
	if q.MaxApplicants != nil {
		out.MaxApplicants = q.MaxApplicants
	}
	if q.UsageRights != nil {
		out.UsageRights = q.UsageRights
	}
	if q.SafetyNotes != nil {
		out.SafetyNotes = q.SafetyNotes
	}
	if q.MoodboardID != nil {
		out.MoodboardID = q.MoodboardID
	}
	if q.Status != nil {
		out.Status = q.Status
	}
	if q.ApplicantPreferences != nil {
		out.ApplicantPreferences = q.ApplicantPreferences
	}
	return out
}

// Apply overlays the present keys of p onto a copy of f. Keys absent from p keep
// f's values. Set-valued keys are normalized on the way in.
func (f GigFields) Apply(p GigPatch) GigFields {
	out := f.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.LookingFor != nil {
		out.LookingFor = NormalizeRoleTags(*p.LookingFor)
	}
	if p.Purpose != nil {
		out.Purpose = *p.Purpose
	}
	if p.CompType != nil {
		out.CompType = *p.CompType
	}
	if p.CompDetails != nil {
		out.CompDetails = *p.CompDetails
	}
	if p.BudgetMin != nil {
		out.BudgetMin = cloneFloat(p.BudgetMin.Value)
	}
	if p.BudgetMax != nil {
		out.BudgetMax = cloneFloat(p.BudgetMax.Value)
	}
	if p.BudgetType != nil {
		out.BudgetType = *p.BudgetType
	}
	if p.Location != nil {
		out.Location = *p.Location
	}
	if p.City != nil {
		out.City = *p.City
	}
	if p.Country != nil {
		out.Country = *p.Country
	}
	if p.StartDate != nil {
		out.StartDate = cloneTime(p.StartDate.Value)
	}
	if p.EndDate != nil {
		out.EndDate = cloneTime(p.EndDate.Value)
	}
	if p.ApplicationDeadline != nil {
		out.ApplicationDeadline = cloneTime(p.ApplicationDeadline.Value)
	}
	if p.MaxApplicants != nil {
		out.MaxApplicants = *p.MaxApplicants
	}
	if p.UsageRights != nil {
		out.UsageRights = NormalizeSet(*p.UsageRights)
	}
	if p.SafetyNotes != nil {
		out.SafetyNotes = *p.SafetyNotes
	}
	if p.MoodboardID != nil {
		out.MoodboardID = *p.MoodboardID
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.ApplicantPreferences != nil {
		out.ApplicantPreferences = p.ApplicantPreferences.Clone()
	}
	return out
}

// Patch returns a patch with every key of f present.
func (f GigFields) Patch() GigPatch {
	c := f.Clone()
	lookingFor := slices.Clone(c.LookingFor)
	usageRights := slices.Clone(c.UsageRights)
	prefs := c.ApplicantPreferences
	return GigPatch{
		Title:                &c.Title,
		Description:          &c.Description,
		LookingFor:           &lookingFor,
		Purpose:              &c.Purpose,
		CompType:             &c.CompType,
		CompDetails:          &c.CompDetails,
		BudgetMin:            &Nullable[float64]{Value: c.BudgetMin},
		BudgetMax:            &Nullable[float64]{Value: c.BudgetMax},
		BudgetType:           &c.BudgetType,
		Location:             &c.Location,
		City:                 &c.City,
		Country:              &c.Country,
		StartDate:            &Nullable[time.Time]{Value: c.StartDate},
		EndDate:              &Nullable[time.Time]{Value: c.EndDate},
		ApplicationDeadline:  &Nullable[time.Time]{Value: c.ApplicationDeadline},
		MaxApplicants:        &c.MaxApplicants,
		UsageRights:          &usageRights,
		SafetyNotes:          &c.SafetyNotes,
		MoodboardID:          &c.MoodboardID,
		Status:               &c.Status,
		ApplicantPreferences: &prefs,
	}
}
