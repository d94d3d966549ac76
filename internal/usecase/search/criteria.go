package search

import (
	"slices"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
)

const (
	minAge      = 18
	maxAge      = 100
	ageWidening = 5
)

type SortKey string

const (
	SortCompatibility SortKey = "compatibility"
	SortAge           SortKey = "age"
	SortNewest        SortKey = "newest"
	SortCompletion    SortKey = "completion"
)

// Criteria is what a viewer asks discovery for. Empty fields do not filter.
type Criteria struct {
	AgeMin         *int   `form:"age_min" json:"age_min" binding:"omitempty,min=18,max=100"`
	AgeMax         *int   `form:"age_max" json:"age_max" binding:"omitempty,min=18,max=100"`
	HeightMin      *int   `form:"height_min" json:"height_min" binding:"omitempty,min=100,max=250"`
	HeightMax      *int   `form:"height_max" json:"height_max" binding:"omitempty,min=100,max=250"`
	Country        string `form:"country" json:"country" binding:"max=100"`
	City           string `form:"city" json:"city" binding:"max=100"`
	Education      string `form:"education" json:"education" binding:"omitempty,oneof=none primary high_school diploma bachelor master doctorate islamic_studies"`
	MaritalStatus  string `form:"marital_status" json:"marital_status" binding:"omitempty,oneof=never_married divorced widowed married"`
	ReligiousLevel string `form:"religious_level" json:"religious_level" binding:"omitempty,oneof=basic moderate practicing very_religious"`
	Occupation     string `form:"occupation" json:"occupation" binding:"max=150"`
	HasBeard       *bool  `form:"has_beard" json:"has_beard"`
	WearsHijab     *bool  `form:"wears_hijab" json:"wears_hijab"`
	WearsNiqab     *bool  `form:"wears_niqab" json:"wears_niqab"`
	PraysRegularly *bool  `form:"prays_regularly" json:"prays_regularly"`
	HasChildren    *bool  `form:"has_children" json:"has_children"`
	WantsChildren  string `form:"wants_children" json:"wants_children" binding:"omitempty,oneof=yes no maybe"`
	VerifiedOnly   bool   `form:"verified_only" json:"verified_only"`

	Page     int     `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"page_size" json:"page_size" binding:"omitempty,min=1"`
	Sort     SortKey `form:"sort" json:"sort" binding:"omitempty,oneof=compatibility age newest completion"`
	Fallback *bool   `form:"fallback" json:"fallback"`
}

// eligibilityFilter mirrors domain.CanInteract as a store predicate, so
// counts and pages only ever contain profiles the viewer may see.
func eligibilityFilter(viewer *domain.Profile) repository.Filter {
	visible := domain.DiscoverableVisibilities
	if !viewer.IsVerified {
		visible = slices.DeleteFunc(slices.Clone(visible), func(v domain.Visibility) bool {
			return v == domain.VisibilityVerifiedOnly
		})
	}
	return repository.And(
		repository.NotIn(repository.FieldID, viewer.ID),
		repository.NotIn(repository.FieldUserID, viewer.UserID),
		repository.Eq(repository.FieldIsActive, true),
		repository.Eq(repository.FieldIsDeleted, false),
		repository.Eq(repository.FieldGender, viewer.Gender.Opposite()),
		repository.In(repository.FieldVisibility, visible...),
		repository.Lacks(repository.FieldBlockedUsers, viewer.UserID),
		repository.NotIn(repository.FieldUserID, viewer.Privacy.BlockedUsers...),
	)
}

// criteriaFilter builds the exact filter, or the relaxed one when relax is
// set. Relaxing widens age bounds and swaps the education and religious
// levels for their ladder neighbours. Everything else stays exact, so the
// relaxed filter always matches a superset of the exact one.
func criteriaFilter(c *Criteria, relax bool) repository.Filter {
	var parts []repository.Filter

	if c.AgeMin != nil {
		lo := *c.AgeMin
		if relax {
			lo = max(lo-ageWidening, minAge)
		}
		parts = append(parts, repository.Gte(repository.FieldAge, lo))
	}
	if c.AgeMax != nil {
		hi := *c.AgeMax
		if relax {
			hi = min(hi+ageWidening, maxAge)
		}
		parts = append(parts, repository.Lte(repository.FieldAge, hi))
	}
	if c.HeightMin != nil {
		parts = append(parts, repository.Gte(repository.FieldHeightCm, *c.HeightMin))
	}
	if c.HeightMax != nil {
		parts = append(parts, repository.Lte(repository.FieldHeightCm, *c.HeightMax))
	}

	if c.Education != "" {
		level := domain.EducationLevel(c.Education)
		if relax {
			parts = append(parts, repository.In(repository.FieldEducation, level.Neighbors()...))
		} else {
			parts = append(parts, repository.Eq(repository.FieldEducation, level))
		}
	}
	if c.ReligiousLevel != "" {
		level := domain.ReligiousLevel(c.ReligiousLevel)
		if relax {
			parts = append(parts, repository.In(repository.FieldReligiousLevel, level.Neighbors()...))
		} else {
			parts = append(parts, repository.Eq(repository.FieldReligiousLevel, level))
		}
	}

	if c.Country != "" {
		parts = append(parts, repository.Contains(repository.FieldCountry, c.Country))
	}
	if c.City != "" {
		parts = append(parts, repository.Contains(repository.FieldCity, c.City))
	}
	if c.Occupation != "" {
		parts = append(parts, repository.Contains(repository.FieldOccupation, c.Occupation))
	}
	if c.MaritalStatus != "" {
		parts = append(parts, repository.Eq(repository.FieldMaritalStatus, c.MaritalStatus))
	}
	if c.WantsChildren != "" {
		parts = append(parts, repository.Eq(repository.FieldWantsChildren, c.WantsChildren))
	}
	flags := []struct {
		field repository.Field
		value *bool
	}{
		{repository.FieldHasBeard, c.HasBeard},
		{repository.FieldWearsHijab, c.WearsHijab},
		{repository.FieldWearsNiqab, c.WearsNiqab},
		{repository.FieldPraysRegularly, c.PraysRegularly},
		{repository.FieldHasChildren, c.HasChildren},
	}
	for _, f := range flags {
		if f.value != nil {
			parts = append(parts, repository.Eq(f.field, *f.value))
		}
	}
	if c.VerifiedOnly {
		parts = append(parts, repository.Eq(repository.FieldIsVerified, true))
	}
	return repository.And(parts...)
}
