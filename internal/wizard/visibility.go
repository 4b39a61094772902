package wizard

import "github.com/matthewbaird/gigwizard/internal/types"

// Section is an optional group on the Preferences step.
type Section string

const (
	SectionPhysical     Section = "physical"
	SectionProfessional Section = "professional"
	SectionEquipment    Section = "equipment"
	SectionSoftware     Section = "software"
)

// Sections lists the optional sections in display order.
var Sections = []Section{SectionPhysical, SectionProfessional, SectionEquipment, SectionSoftware}

func tagSet(tags ...types.RoleTag) map[types.RoleTag]struct{} {
	m := make(map[types.RoleTag]struct{}, len(tags))
	for _, t := range tags {
		m[t] = struct{}{}
	}
	return m
}

var sectionMembers = map[Section]map[types.RoleTag]struct{}{
	SectionPhysical: tagSet(
		"MODELS", "MODELS_FASHION", "MODELS_COMMERCIAL", "MODELS_FITNESS",
		"MODELS_EDITORIAL", "MODELS_RUNWAY", "MODELS_HAND", "MODELS_PARTS",
		"ACTORS", "DANCERS", "PERFORMERS",
	),
	SectionProfessional: tagSet(
		"PHOTOGRAPHERS", "VIDEOGRAPHERS", "CINEMATOGRAPHERS",
		"MAKEUP_ARTISTS", "HAIR_STYLISTS", "FASHION_STYLISTS", "WARDROBE_STYLISTS",
		"PRODUCTION_CREW", "PRODUCERS", "DIRECTORS",
		"CREATIVE_DIRECTORS", "ART_DIRECTORS",
	),
	SectionEquipment: tagSet(
		"PHOTOGRAPHERS", "VIDEOGRAPHERS", "CINEMATOGRAPHERS",
		"PRODUCTION_CREW", "PRODUCERS", "DIRECTORS",
	),
	SectionSoftware: tagSet(
		"PHOTOGRAPHERS", "VIDEOGRAPHERS", "CINEMATOGRAPHERS",
		"EDITORS", "VIDEO_EDITORS", "PHOTO_EDITORS",
		"VFX_ARTISTS", "MOTION_GRAPHICS", "RETOUCHERS", "COLOR_GRADERS",
		"DESIGNERS", "GRAPHIC_DESIGNERS", "ILLUSTRATORS", "ANIMATORS",
		"CREATIVE_DIRECTORS", "ART_DIRECTORS",
	),
}

// Visible reports whether section is shown for the selected role tags: true iff
// the tags intersect the section's membership set.
func Visible(section Section, tags []types.RoleTag) bool {
	members := sectionMembers[section]
	for _, t := range tags {
		if _, ok := members[t]; ok {
			return true
		}
	}
	return false
}

func ShowPhysicalAttributes(tags []types.RoleTag) bool { return Visible(SectionPhysical, tags) }
func ShowProfessionalSkills(tags []types.RoleTag) bool { return Visible(SectionProfessional, tags) }
func ShowEquipment(tags []types.RoleTag) bool          { return Visible(SectionEquipment, tags) }
func ShowSoftware(tags []types.RoleTag) bool           { return Visible(SectionSoftware, tags) }

// SectionState is either ActiveSection or DormantSection. A dormant section keeps
// its data in the field state but is left out of validation and the commit payload.
type SectionState interface {
	Section() Section
	Active() bool
}

// ActiveSection is a section whose visibility condition holds.
type ActiveSection struct{ Name Section }

// DormantSection is a hidden section whose data is retained but inert.
type DormantSection struct{ Name Section }

func (s ActiveSection) Section() Section  { return s.Name }
func (s ActiveSection) Active() bool      { return true }
func (s DormantSection) Section() Section { return s.Name }
func (s DormantSection) Active() bool     { return false }

// Partition classifies every optional section for the given role tags.
func Partition(tags []types.RoleTag) []SectionState {
	out := make([]SectionState, 0, len(Sections))
	for _, s := range Sections {
		if Visible(s, tags) {
			out = append(out, ActiveSection{Name: s})
		} else {
			out = append(out, DormantSection{Name: s})
		}
	}
	return out
}

// ActivePreferences returns p with every dormant section reset to its default,
// which is the view committed to the gig.
func ActivePreferences(p types.ApplicantPreferences, tags []types.RoleTag) types.ApplicantPreferences {
	out := p.Clone()
	defaults := types.DefaultApplicantPreferences()
	for _, st := range Partition(tags) {
		if st.Active() {
			continue
		}
		switch st.Section() {
		case SectionPhysical:
			out.Physical = defaults.Physical
		case SectionProfessional:
			out.Professional.ExperienceYears = defaults.Professional.ExperienceYears
			out.Professional.Specializations = defaults.Professional.Specializations
			out.Professional.TalentCategories = defaults.Professional.TalentCategories
			out.Professional.PortfolioRequired = defaults.Professional.PortfolioRequired
		case SectionEquipment:
			out.Professional.Equipment = defaults.Professional.Equipment
		case SectionSoftware:
			out.Professional.Software = defaults.Professional.Software
		}
	}
	return out
}
