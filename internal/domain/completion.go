package domain

import "strings"

// CompletionThreshold is the completion percentage a profile needs before its
// owner may send introduction requests.
const CompletionThreshold = 80

type completionCheck struct {
	field  string
	filled func(p *Profile) bool
}

var commonChecklist = []completionCheck{
	{"display_name", func(p *Profile) bool { return hasText(p.DisplayName) }},
	{"about", func(p *Profile) bool { return hasText(p.About) }},
	{"age", func(p *Profile) bool { return p.Age >= 18 }},
	{"height_cm", func(p *Profile) bool { return p.HeightCm > 0 }},
	{"country", func(p *Profile) bool { return hasText(p.Country) }},
	{"city", func(p *Profile) bool { return hasText(p.City) }},
	{"marital_status", func(p *Profile) bool { return p.MaritalStatus != "" }},
	{"religious_level", func(p *Profile) bool { return p.ReligiousLevel != "" }},
	{"education", func(p *Profile) bool { return p.Education != "" }},
	{"occupation", func(p *Profile) bool { return hasText(p.Occupation) }},
	{"marriage_goal", func(p *Profile) bool { return hasText(p.MarriageGoal) }},
	{"has_children", func(p *Profile) bool { return p.HasChildren != nil }},
	{"wants_children", func(p *Profile) bool { return p.WantsChildren != "" }},
	{"prays_regularly", func(p *Profile) bool { return p.PraysRegularly != nil }},
}

var maleChecklist = []completionCheck{
	{"has_beard", func(p *Profile) bool { return p.HasBeard != nil }},
}

var femaleChecklist = []completionCheck{
	{"wears_hijab", func(p *Profile) bool { return p.WearsHijab != nil }},
	{"wears_niqab", func(p *Profile) bool { return p.WearsNiqab != nil }},
}

func checklistFor(g Gender) []completionCheck {
	list := make([]completionCheck, 0, len(commonChecklist)+len(femaleChecklist))
	list = append(list, commonChecklist...)
	switch g {
	case GenderMale:
		list = append(list, maleChecklist...)
	case GenderFemale:
		list = append(list, femaleChecklist...)
	}
	return list
}

// ComputeCompletion derives the completion percentage from the
// gender-specific checklist. It is never stored by hand.
func ComputeCompletion(p *Profile) int {
	list := checklistFor(p.Gender)
	filled := 0
	for _, c := range list {
		if c.filled(p) {
			filled++
		}
	}
	return filled * 100 / len(list)
}

// MissingFields lists checklist items the profile has not filled yet.
func MissingFields(p *Profile) []string {
	var missing []string
	for _, c := range checklistFor(p.Gender) {
		if !c.filled(p) {
			missing = append(missing, c.field)
		}
	}
	return missing
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
