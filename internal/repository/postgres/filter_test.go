package postgres

import (
	"reflect"
	"testing"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func TestWhereClause(t *testing.T) {
	id := uuid.MustParse("6f1c8b0e-4c55-4a4e-9a7e-2f0d3c9a1b11")

	tests := []struct {
		name   string
		filter repository.Filter
		sql    string
		args   []interface{}
	}{
		{"empty", repository.Filter{}, "TRUE", nil},
		{
			"eq enum",
			repository.Eq(repository.FieldGender, domain.GenderFemale),
			"gender = $1",
			[]interface{}{"female"},
		},
		{
			"uuid compared as text",
			repository.NotIn(repository.FieldID, id),
			"NOT (id::text = ANY($1))",
			[]interface{}{pq.StringArray{id.String()}},
		},
		{
			"range and contains",
			repository.And(
				repository.Gte(repository.FieldAge, 25),
				repository.Lte(repository.FieldAge, 35),
				repository.Contains(repository.FieldCity, "50%_off"),
			),
			`(age >= $1 AND age <= $2 AND city ILIKE $3)`,
			[]interface{}{25, 35, `%50\%\_off%`},
		},
		{
			"or of in",
			repository.Or(
				repository.In(repository.FieldEducation, domain.EducationBachelor, domain.EducationMaster),
				repository.In(repository.FieldHeightCm, 170, 180),
			),
			"(education = ANY($1) OR height_cm = ANY($2))",
			[]interface{}{pq.StringArray{"bachelor", "master"}, pq.Int64Array{170, 180}},
		},
		{
			"lacks",
			repository.Lacks(repository.FieldBlockedUsers, id),
			"NOT ($1 = ANY(blocked_users))",
			[]interface{}{id.String()},
		},
		{
			"bool in",
			repository.In(repository.FieldPraysRegularly, true),
			"prays_regularly = ANY($1)",
			[]interface{}{pq.BoolArray{true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args []interface{}
			sql, err := whereClause(tt.filter, &args)
			if err != nil {
				t.Fatal(err)
			}
			if sql != tt.sql {
				t.Errorf("sql = %q, want %q", sql, tt.sql)
			}
			if !reflect.DeepEqual(args, tt.args) {
				t.Errorf("args = %#v, want %#v", args, tt.args)
			}
		})
	}
}

func TestWhereClauseErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter repository.Filter
	}{
		{"unknown field", repository.Eq("shoe_size", 42)},
		{"unknown op", repository.Filter{Op: "near", Field: repository.FieldCity}},
		{"mixed operands", repository.Filter{Op: repository.OpIn, Field: repository.FieldAge, Values: []any{1, "two"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args []interface{}
			if _, err := whereClause(tt.filter, &args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWhereClauseNumbersArgsAcrossCalls(t *testing.T) {
	args := []interface{}{"already bound"}
	sql, err := whereClause(repository.Eq(repository.FieldCity, "Leeds"), &args)
	if err != nil {
		t.Fatal(err)
	}
	if sql != "city = $2" || len(args) != 2 {
		t.Errorf("sql = %q, args = %v", sql, args)
	}
}

func TestOrderClause(t *testing.T) {
	got, err := orderClause([]repository.Order{
		{Field: repository.FieldCompletion, Desc: true},
		{Field: repository.FieldAge},
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := "completion_percentage DESC, age, created_at, id"; got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
	if got, _ := orderClause(nil); got != "created_at, id" {
		t.Errorf("default order = %q", got)
	}
	for _, f := range []repository.Field{"shoe_size", repository.FieldBlockedUsers} {
		if _, err := orderClause([]repository.Order{{Field: f}}); err == nil {
			t.Errorf("order by %s should fail", f)
		}
	}
}
