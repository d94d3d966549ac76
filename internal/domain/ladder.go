package domain

import "slices"

type EducationLevel string

const (
	EducationNone           EducationLevel = "none"
	EducationPrimary        EducationLevel = "primary"
	EducationHighSchool     EducationLevel = "high_school"
	EducationDiploma        EducationLevel = "diploma"
	EducationBachelor       EducationLevel = "bachelor"
	EducationMaster         EducationLevel = "master"
	EducationDoctorate      EducationLevel = "doctorate"
	EducationIslamicStudies EducationLevel = "islamic_studies"
)

// EducationLevels is every accepted education value.
var EducationLevels = []EducationLevel{
	EducationNone,
	EducationPrimary,
	EducationHighSchool,
	EducationDiploma,
	EducationBachelor,
	EducationMaster,
	EducationDoctorate,
	EducationIslamicStudies,
}

// EducationLadder orders the secular levels. Islamic studies sits off the
// ladder and only ever relaxes to itself.
var EducationLadder = []EducationLevel{
	EducationNone,
	EducationPrimary,
	EducationHighSchool,
	EducationDiploma,
	EducationBachelor,
	EducationMaster,
	EducationDoctorate,
}

func (e EducationLevel) Valid() bool {
	return slices.Contains(EducationLevels, e)
}

// Neighbors returns the level itself plus its immediate ladder neighbors,
// in ladder order.
func (e EducationLevel) Neighbors() []EducationLevel {
	return neighbors(EducationLadder, e)
}

type ReligiousLevel string

const (
	ReligiousBasic         ReligiousLevel = "basic"
	ReligiousModerate      ReligiousLevel = "moderate"
	ReligiousPracticing    ReligiousLevel = "practicing"
	ReligiousVeryReligious ReligiousLevel = "very_religious"
)

var ReligiousLadder = []ReligiousLevel{
	ReligiousBasic,
	ReligiousModerate,
	ReligiousPracticing,
	ReligiousVeryReligious,
}

func (r ReligiousLevel) Valid() bool {
	return slices.Contains(ReligiousLadder, r)
}

func (r ReligiousLevel) Neighbors() []ReligiousLevel {
	return neighbors(ReligiousLadder, r)
}

// LadderDistance is the index distance between a and b on ladder, or -1 when
// either is not on it.
func LadderDistance[T comparable](ladder []T, a, b T) int {
	i, j := slices.Index(ladder, a), slices.Index(ladder, b)
	if i < 0 || j < 0 {
		return -1
	}
	if i > j {
		return i - j
	}
	return j - i
}

func neighbors[T comparable](ladder []T, v T) []T {
	out := make([]T, 0, 3)
	found := false
	for _, rung := range ladder {
		if d := LadderDistance(ladder, v, rung); d >= 0 && d <= 1 {
			out = append(out, rung)
			found = true
		}
	}
	if !found {
		return []T{v}
	}
	return out
}
