package memory

import (
	"slices"
	"strings"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
)

// Matches evaluates f against p the way the Postgres store would.
func Matches(f repository.Filter, p *domain.Profile) bool {
	switch f.Op {
	case "":
		return true
	case repository.OpAnd:
		for _, c := range f.Children {
			if !Matches(c, p) {
				return false
			}
		}
		return true
	case repository.OpOr:
		for _, c := range f.Children {
			if Matches(c, p) {
				return true
			}
		}
		return false
	}

	value := fieldValue(p, f.Field)
	switch f.Op {
	case repository.OpEq:
		return value != nil && value == f.Value
	case repository.OpIn:
		return value != nil && slices.Contains(f.Values, value)
	case repository.OpNotIn:
		// SQL semantics: NULL NOT IN (...) is not true.
		return value != nil && !slices.Contains(f.Values, value)
	case repository.OpGte, repository.OpLte:
		n, ok := value.(int)
		bound, _ := f.Value.(int)
		if !ok {
			return false
		}
		if f.Op == repository.OpGte {
			return n >= bound
		}
		return n <= bound
	case repository.OpContains:
		s, ok := value.(string)
		sub, _ := f.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	case repository.OpLacks:
		set, _ := value.([]any)
		return !slices.Contains(set, f.Value)
	}
	return false
}

func fieldValue(p *domain.Profile, field repository.Field) any {
	switch field {
	case repository.FieldID:
		return p.ID.String()
	case repository.FieldUserID:
		return p.UserID.String()
	case repository.FieldDisplayName:
		return p.DisplayName
	case repository.FieldGender:
		return string(p.Gender)
	case repository.FieldAge:
		return p.Age
	case repository.FieldHeightCm:
		return p.HeightCm
	case repository.FieldCountry:
		return p.Country
	case repository.FieldRegion:
		return p.Region
	case repository.FieldCity:
		return p.City
	case repository.FieldMaritalStatus:
		return string(p.MaritalStatus)
	case repository.FieldReligiousLevel:
		return string(p.ReligiousLevel)
	case repository.FieldEducation:
		return string(p.Education)
	case repository.FieldOccupation:
		return p.Occupation
	case repository.FieldHasChildren:
		return repository.Normalize(p.HasChildren)
	case repository.FieldWantsChildren:
		return string(p.WantsChildren)
	case repository.FieldHasBeard:
		return repository.Normalize(p.HasBeard)
	case repository.FieldWearsHijab:
		return repository.Normalize(p.WearsHijab)
	case repository.FieldWearsNiqab:
		return repository.Normalize(p.WearsNiqab)
	case repository.FieldPraysRegularly:
		return repository.Normalize(p.PraysRegularly)
	case repository.FieldIsVerified:
		return p.IsVerified
	case repository.FieldVisibility:
		return string(p.Privacy.Visibility)
	case repository.FieldIsActive:
		return p.IsActive
	case repository.FieldIsDeleted:
		return p.IsDeleted
	case repository.FieldCompletion:
		return p.CompletionPercentage
	case repository.FieldCreatedAt:
		return p.CreatedAt
	case repository.FieldBlockedUsers:
		set := make([]any, len(p.Privacy.BlockedUsers))
		for i, id := range p.Privacy.BlockedUsers {
			set[i] = id.String()
		}
		return set
	}
	return nil
}
