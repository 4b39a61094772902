// Package wizard implements the multi-step gig form engine: per-step validation,
// role-driven section visibility, step sequencing and the controller that ties them
// to draft persistence and the commit adapter.
package wizard

// Step identifies one page of the wizard.
type Step string

const (
	StepBasic        Step = "basic"
	StepSchedule     Step = "schedule"
	StepRequirements Step = "requirements"
	StepPreferences  Step = "preferences"
	StepMoodboard    Step = "moodboard"
	StepReview       Step = "review"
)

// knownSteps lists every step the engine has rules for, in canonical order.
var knownSteps = []Step{
	StepBasic,
	StepSchedule,
	StepRequirements,
	StepPreferences,
	StepMoodboard,
	StepReview,
}

var stepTitles = map[Step]string{
	StepBasic:        "Basic Details",
	StepSchedule:     "Schedule",
	StepRequirements: "Requirements",
	StepPreferences:  "Preferences",
	StepMoodboard:    "Moodboard",
	StepReview:       "Review",
}

// Valid reports whether s is one of the known step identifiers.
func (s Step) Valid() bool {
	_, ok := stepTitles[s]
	return ok
}

// Title returns the human-readable step name.
func (s Step) Title() string {
	return stepTitles[s]
}

// Mode selects between the create and edit flows.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)
