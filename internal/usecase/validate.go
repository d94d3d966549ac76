package usecase

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/go-playground/validator/v10"
)

// NewValidator reads the same `binding` tags gin checks at the edge, and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

// Configure points v at `binding` tags and JSON field names. The delivery
// layer applies it to gin's engine so both report fields the same way.
func Configure(v *validator.Validate) {
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := f.Tag.Get("json")
		if tag == "" {
			tag = f.Tag.Get("form")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// Validate runs v over s and converts failures into a domain.ValidationError.
func Validate(v *validator.Validate, s interface{}) error {
	return ValidationError(v.Struct(s))
}

// ValidationError converts validator failures into a domain.ValidationError
// and returns any other error unchanged.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fieldPath(fe)] = describe(fe)
	}
	return out
}

// fieldPath keeps the JSON names of the namespace, dropping the top-level
// struct and embedded struct names.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	out := parts[:0]
	for _, p := range parts[1:] {
		if p != "" && unicode.IsLower(rune(p[0])) {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a uuid"
	}
	return "failed " + fe.Tag()
}
