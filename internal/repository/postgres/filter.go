package postgres

import (
	"fmt"
	"strings"

	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/lib/pq"
)

var profileColumns = map[repository.Field]string{
	repository.FieldID:             "id",
	repository.FieldUserID:         "user_id",
	repository.FieldDisplayName:    "display_name",
	repository.FieldGender:         "gender",
	repository.FieldAge:            "age",
	repository.FieldHeightCm:       "height_cm",
	repository.FieldCountry:        "country",
	repository.FieldRegion:         "region",
	repository.FieldCity:           "city",
	repository.FieldMaritalStatus:  "marital_status",
	repository.FieldReligiousLevel: "religious_level",
	repository.FieldEducation:      "education",
	repository.FieldOccupation:     "occupation",
	repository.FieldHasChildren:    "has_children",
	repository.FieldWantsChildren:  "wants_children",
	repository.FieldHasBeard:       "has_beard",
	repository.FieldWearsHijab:     "wears_hijab",
	repository.FieldWearsNiqab:     "wears_niqab",
	repository.FieldPraysRegularly: "prays_regularly",
	repository.FieldIsVerified:     "is_verified",
	repository.FieldVisibility:     "visibility",
	repository.FieldIsActive:       "is_active",
	repository.FieldIsDeleted:      "is_deleted",
	repository.FieldBlockedUsers:   "blocked_users",
	repository.FieldCompletion:     "completion_percentage",
	repository.FieldCreatedAt:      "created_at",
}

// uuidColumns are compared as text so filter operands can stay strings.
var uuidColumns = map[string]bool{"id": true, "user_id": true}

// orderClause compiles order into an ORDER BY list ending in the
// insertion-order tie break.
func orderClause(order []repository.Order) (string, error) {
	terms := make([]string, 0, len(order)+2)
	for _, o := range order {
		col, ok := profileColumns[o.Field]
		if !ok || col == "blocked_users" {
			return "", fmt.Errorf("cannot order by %q", o.Field)
		}
		if o.Desc {
			col += " DESC"
		}
		terms = append(terms, col)
	}
	terms = append(terms, "created_at", "id")
	return strings.Join(terms, ", "), nil
}

// whereClause compiles f into a SQL predicate, appending its arguments to
// args. An empty filter compiles to TRUE.
func whereClause(f repository.Filter, args *[]interface{}) (string, error) {
	switch f.Op {
	case "":
		return "TRUE", nil
	case repository.OpAnd, repository.OpOr:
		parts := make([]string, 0, len(f.Children))
		for _, c := range f.Children {
			part, err := whereClause(c, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		joiner := " AND "
		if f.Op == repository.OpOr {
			joiner = " OR "
		}
		return "(" + strings.Join(parts, joiner) + ")", nil
	}

	col, ok := profileColumns[f.Field]
	if !ok {
		return "", fmt.Errorf("unknown filter field %q", f.Field)
	}
	if uuidColumns[col] {
		col += "::text"
	}

	bind := func(v interface{}) string {
		*args = append(*args, v)
		return fmt.Sprintf("$%d", len(*args))
	}

	switch f.Op {
	case repository.OpEq:
		return fmt.Sprintf("%s = %s", col, bind(f.Value)), nil
	case repository.OpIn, repository.OpNotIn:
		arr, err := arrayArg(f.Values)
		if err != nil {
			return "", err
		}
		clause := fmt.Sprintf("%s = ANY(%s)", col, bind(arr))
		if f.Op == repository.OpNotIn {
			clause = "NOT (" + clause + ")"
		}
		return clause, nil
	case repository.OpGte:
		return fmt.Sprintf("%s >= %s", col, bind(f.Value)), nil
	case repository.OpLte:
		return fmt.Sprintf("%s <= %s", col, bind(f.Value)), nil
	case repository.OpContains:
		s, _ := f.Value.(string)
		return fmt.Sprintf("%s ILIKE %s", col, bind("%"+escapeLike(s)+"%")), nil
	case repository.OpLacks:
		return fmt.Sprintf("NOT (%s = ANY(%s))", bind(f.Value), col), nil
	}
	return "", fmt.Errorf("unsupported filter op %q", f.Op)
}

func arrayArg(values []interface{}) (interface{}, error) {
	if len(values) == 0 {
		return pq.StringArray{}, nil
	}
	switch values[0].(type) {
	case string:
		out := make(pq.StringArray, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("mixed filter operand types")
			}
			out[i] = s
		}
		return out, nil
	case int:
		out := make(pq.Int64Array, len(values))
		for i, v := range values {
			n, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("mixed filter operand types")
			}
			out[i] = int64(n)
		}
		return out, nil
	case bool:
		out := make(pq.BoolArray, len(values))
		for i, v := range values {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("mixed filter operand types")
			}
			out[i] = b
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported filter operand %T", values[0])
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
