package wizard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/matthewbaird/gigwizard/internal/types"
)

// MinDescriptionLength is the minimum trimmed description length, in characters.
const MinDescriptionLength = 50

// deadlineWarningWindow is how close to the shoot a deadline may fall before a warning.
const deadlineWarningWindow = 24 * time.Hour

// Validation messages. Callers match on these, keep them stable.
const (
	MsgRolesRequired       = "Select at least one role you're looking for"
	MsgTitleRequired       = "Title is required"
	MsgDescriptionTooShort = "Description must be at least 50 characters"
	MsgCompDetailsRequired = "Compensation details are required for paid or expenses-covered gigs"
	MsgLocationRequired    = "Location is required"
	MsgStartRequired       = "Start date and time are required"
	MsgEndRequired         = "End date and time are required"
	MsgEndBeforeStart      = "End time must be after start time"
	MsgDeadlineAfterStart  = "Application deadline must be before the shoot starts"
	MsgUsageRightsRequired = "Specify at least one usage right"
	MsgMaxApplicants       = "Max applicants must be at least 1"
	MsgBudgetInverted      = "Budget minimum must not exceed budget maximum"
	MsgHeightInverted      = "Height range minimum must not exceed maximum"
	MsgExperienceInverted  = "Experience range minimum must not exceed maximum"
	MsgHourlyRateInverted  = "Hourly rate minimum must not exceed maximum"
	MsgAgeInverted         = "Age range minimum must not exceed maximum"
)

// Result is the outcome of validating one step. Errors block navigation;
// warnings are advisory.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Result) fail(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r Result) done() Result {
	r.Valid = len(r.Errors) == 0
	return r
}

// Validate runs the rule for step against f. Every violated rule is reported.
// Steps without rules (preferences, moodboard, review) are always valid but may warn.
func Validate(step Step, f types.GigFields) Result {
	switch step {
	case StepBasic:
		return validateBasic(f)
	case StepSchedule:
		return validateSchedule(f)
	case StepRequirements:
		return validateRequirements(f)
	case StepPreferences:
		return validatePreferences(f)
	default:
		return Result{Valid: true}
	}
}

// ValidateForCommit validates every step in order and promotes range warnings to
// errors. Ranges inside dormant preference sections are ignored.
func ValidateForCommit(order []Step, f types.GigFields) Result {
	var out Result
	seen := make(map[string]bool)
	add := func(msg string) {
		if !seen[msg] {
			seen[msg] = true
			out.fail(msg)
		}
	}
	for _, step := range order {
		res := Validate(step, f)
		for _, e := range res.Errors {
			add(e)
		}
	}
	for _, e := range rangeViolations(f) {
		add(e)
	}
	return out.done()
}

func validateBasic(f types.GigFields) Result {
	var r Result
	if len(f.LookingFor) == 0 {
		r.fail(MsgRolesRequired)
	}
	if strings.TrimSpace(f.Title) == "" {
		r.fail(MsgTitleRequired)
	}
	if charCount(strings.TrimSpace(f.Description)) < MinDescriptionLength {
		r.fail(MsgDescriptionTooShort)
	}
	if f.CompType.RequiresDetails() && strings.TrimSpace(f.CompDetails) == "" {
		r.fail(MsgCompDetailsRequired)
	}
	if f.BudgetRange().Inverted() {
		r.warn(MsgBudgetInverted)
	}
	return r.done()
}

func validateSchedule(f types.GigFields) Result {
	var r Result
	if strings.TrimSpace(f.Location) == "" {
		r.fail(MsgLocationRequired)
	}
	if f.StartDate == nil {
		r.fail(MsgStartRequired)
	}
	if f.EndDate == nil {
		r.fail(MsgEndRequired)
	}
	if f.StartDate != nil && f.EndDate != nil && !f.EndDate.After(*f.StartDate) {
		r.fail(MsgEndBeforeStart)
	}
	if f.StartDate != nil && f.ApplicationDeadline != nil {
		lead := f.StartDate.Sub(*f.ApplicationDeadline)
		switch {
		case lead <= 0:
			r.fail(MsgDeadlineAfterStart)
		case lead < deadlineWarningWindow:
			hours := math.Round(lead.Hours()*10) / 10
			r.warn(fmt.Sprintf("Only %s hours before shoot - consider allowing at least 24 hours",
				strconv.FormatFloat(hours, 'f', -1, 64)))
		}
	}
	return r.done()
}

func validateRequirements(f types.GigFields) Result {
	var r Result
	rights := 0
	for _, u := range f.UsageRights {
		if strings.TrimSpace(u) != "" {
			rights++
		}
	}
	if rights == 0 {
		r.fail(MsgUsageRightsRequired)
	}
	if f.MaxApplicants < 1 {
		r.fail(MsgMaxApplicants)
	}
	return r.done()
}

func validatePreferences(f types.GigFields) Result {
	var r Result
	for _, msg := range preferenceRangeViolations(f) {
		r.warn(msg)
	}
	return r.done()
}

// rangeViolations lists every inverted range in the active view of f.
func rangeViolations(f types.GigFields) []string {
	var out []string
	if f.BudgetRange().Inverted() {
		out = append(out, MsgBudgetInverted)
	}
	return append(out, preferenceRangeViolations(f)...)
}

func preferenceRangeViolations(f types.GigFields) []string {
	var out []string
	p := f.ApplicantPreferences
	if ShowPhysicalAttributes(f.LookingFor) && p.Physical.HeightRange.Inverted() {
		out = append(out, MsgHeightInverted)
	}
	if ShowProfessionalSkills(f.LookingFor) && p.Professional.ExperienceYears.Inverted() {
		out = append(out, MsgExperienceInverted)
	}
	if p.Availability.HourlyRateRange.Inverted() {
		out = append(out, MsgHourlyRateInverted)
	}
	if p.Other.AgeRange.Inverted() {
		out = append(out, MsgAgeInverted)
	}
	return out
}

// charCount counts user-perceived characters after NFC normalization, so a
// decomposed "é" counts once.
func charCount(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}
