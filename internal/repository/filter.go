package repository

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Field names a filterable profile attribute.
type Field string

const (
	FieldID             Field = "id"
	FieldUserID         Field = "user_id"
	FieldDisplayName    Field = "display_name"
	FieldGender         Field = "gender"
	FieldAge            Field = "age"
	FieldHeightCm       Field = "height_cm"
	FieldCountry        Field = "country"
	FieldRegion         Field = "region"
	FieldCity           Field = "city"
	FieldMaritalStatus  Field = "marital_status"
	FieldReligiousLevel Field = "religious_level"
	FieldEducation      Field = "education"
	FieldOccupation     Field = "occupation"
	FieldHasChildren    Field = "has_children"
	FieldWantsChildren  Field = "wants_children"
	FieldHasBeard       Field = "has_beard"
	FieldWearsHijab     Field = "wears_hijab"
	FieldWearsNiqab     Field = "wears_niqab"
	FieldPraysRegularly Field = "prays_regularly"
	FieldIsVerified     Field = "is_verified"
	FieldVisibility     Field = "visibility"
	FieldIsActive       Field = "is_active"
	FieldIsDeleted      Field = "is_deleted"
	FieldBlockedUsers   Field = "blocked_users"
	FieldCompletion     Field = "completion_percentage"
	FieldCreatedAt      Field = "created_at"
)

type Op string

const (
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpEq       Op = "eq"
	OpIn       Op = "in"
	OpNotIn    Op = "not_in"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpContains Op = "contains"
	// OpLacks holds when a set-valued field does not contain Value.
	OpLacks Op = "lacks"
)

// Filter is an abstract predicate tree over profile fields. Stores translate
// it into their own query form; it is deliberately not a query language.
//
// Values are normalized on construction: string-kinded enums and UUIDs become
// strings, integer kinds become int.
type Filter struct {
	Op       Op
	Field    Field
	Value    any
	Values   []any
	Children []Filter
}

// IsZero reports an empty filter, which matches everything.
func (f Filter) IsZero() bool {
	return f.Op == ""
}

// And joins non-empty filters. A single child is returned as is.
func And(filters ...Filter) Filter {
	return group(OpAnd, filters)
}

func Or(filters ...Filter) Filter {
	return group(OpOr, filters)
}

func group(op Op, filters []Filter) Filter {
	children := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if !f.IsZero() {
			children = append(children, f)
		}
	}
	switch len(children) {
	case 0:
		return Filter{}
	case 1:
		return children[0]
	}
	return Filter{Op: op, Children: children}
}

func Eq(field Field, value any) Filter {
	return Filter{Op: OpEq, Field: field, Value: Normalize(value)}
}

func In[T any](field Field, values ...T) Filter {
	return Filter{Op: OpIn, Field: field, Values: normalizeAll(values)}
}

func NotIn[T any](field Field, values ...T) Filter {
	if len(values) == 0 {
		return Filter{}
	}
	return Filter{Op: OpNotIn, Field: field, Values: normalizeAll(values)}
}

func Gte(field Field, value int) Filter {
	return Filter{Op: OpGte, Field: field, Value: value}
}

func Lte(field Field, value int) Filter {
	return Filter{Op: OpLte, Field: field, Value: value}
}

// Contains is a case-insensitive substring match.
func Contains(field Field, substr string) Filter {
	return Filter{Op: OpContains, Field: field, Value: substr}
}

func Lacks(field Field, value any) Filter {
	return Filter{Op: OpLacks, Field: field, Value: Normalize(value)}
}

func normalizeAll[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Normalize(v)
	}
	return out
}

// Normalize maps a filter operand onto string, int or bool.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return t.String()
	case string, int, bool:
		return t
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// String renders the tree for logs.
func (f Filter) String() string {
	switch f.Op {
	case "":
		return "true"
	case OpAnd, OpOr:
		s := "("
		for i, c := range f.Children {
			if i > 0 {
				s += " " + string(f.Op) + " "
			}
			s += c.String()
		}
		return s + ")"
	case OpIn, OpNotIn:
		return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Values)
	default:
		return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
	}
}
