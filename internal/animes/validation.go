package animes

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/animedojo/anime-api/internal/shared"
)

// Validator converts struct tag violations into shared.ValidationError.
type Validator struct {
	validate *validator.Validate
}

// NewValidator configures go-playground/validator with JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s. It returns nil or a *shared.ValidationError listing
// one entry per invalid field in declaration order.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &shared.ValidationError{}
	seen := make(map[string]struct{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, dup := seen[fe.Field()]; dup {
			continue
		}
		seen[fe.Field()] = struct{}{}
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		return "The anime name cannot be empty"
	case "id":
		return "The anime id must be a positive number"
	}
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " cannot be empty"
	default:
		return fe.Field() + " is invalid"
	}
}
