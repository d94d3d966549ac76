package domain

import "strings"

const (
	weightAge          = 20
	weightEducation    = 15
	weightLocation     = 15
	weightReligious    = 20
	weightMarriageGoal = 10
	weightChildren     = 10
	weightOccupation   = 10

	maxCompatibility = 100
)

// CompatibilityFactor is one line of the score breakdown.
type CompatibilityFactor struct {
	Name    string `json:"name"`
	Weight  int    `json:"weight"`
	Points  int    `json:"points"`
	Matched bool   `json:"matched"`
}

type Compatibility struct {
	Total   int                   `json:"total"`
	Factors []CompatibilityFactor `json:"factors"`
}

// ScoreCompatibility scores candidate b as seen by viewer a. The location
// factor is viewer-centric, so ScoreCompatibility(a, b) and
// ScoreCompatibility(b, a) may differ.
func ScoreCompatibility(a, b *Profile) Compatibility {
	factors := []CompatibilityFactor{
		ageFactor(a, b),
		boolFactor("education", weightEducation, a.Education != "" && a.Education == b.Education),
		locationFactor(a, b),
		boolFactor("religious_level", weightReligious, a.ReligiousLevel != "" && a.ReligiousLevel == b.ReligiousLevel),
		boolFactor("marriage_goal", weightMarriageGoal, sameText(a.MarriageGoal, b.MarriageGoal)),
		boolFactor("children_desire", weightChildren, a.WantsChildren != "" && a.WantsChildren == b.WantsChildren),
		boolFactor("occupation", weightOccupation, strings.TrimSpace(a.Occupation) != "" && strings.TrimSpace(b.Occupation) != ""),
	}

	total := 0
	for _, f := range factors {
		total += f.Points
	}
	return Compatibility{Total: min(total, maxCompatibility), Factors: factors}
}

func ageFactor(a, b *Profile) CompatibilityFactor {
	gap := a.Age - b.Age
	if gap < 0 {
		gap = -gap
	}
	points := max(0, weightAge-gap)
	return CompatibilityFactor{Name: "age", Weight: weightAge, Points: points, Matched: points > 0}
}

// locationFactor gives full credit for the same city, half for the same
// region. Blank regions never match.
func locationFactor(a, b *Profile) CompatibilityFactor {
	f := CompatibilityFactor{Name: "location", Weight: weightLocation}
	switch {
	case sameText(a.City, b.City):
		f.Points = weightLocation
	case a.Region != "" && sameText(a.Region, b.Region):
		f.Points = weightLocation / 2
	}
	f.Matched = f.Points > 0
	return f
}

func boolFactor(name string, weight int, matched bool) CompatibilityFactor {
	f := CompatibilityFactor{Name: name, Weight: weight, Matched: matched}
	if matched {
		f.Points = weight
	}
	return f
}

func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
