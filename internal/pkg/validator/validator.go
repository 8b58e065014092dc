package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
)

// Validator wraps go-playground validator with the plan vocabulary
// registered as tags:
//
//	module    empty or a known plan module
//	duration  monthly or annual
//	quota     Unbounded (-1) or a non-negative limit
type Validator struct {
	validate *validator.Validate
}

// ValidationError describes one failed field. Field uses the json name.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]validator.Func{
		"module": func(fl validator.FieldLevel) bool {
			_, err := plan.ParseModule(fl.Field().String())
			return err == nil
		},
		"duration": func(fl validator.FieldLevel) bool {
			_, err := subscription.ParseDuration(fl.Field().String())
			return err == nil
		},
		"quota": func(fl validator.FieldLevel) bool {
			n := fl.Field().Int()
			return n == usage.Unbounded || n >= 0
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validator: register %s: %v", tag, err))
		}
	}

	return &Validator{validate: v}
}

// Validate returns every field problem in i, or nil when i is valid
func (v *Validator) Validate(i interface{}) []ValidationError {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		unit := "characters long"
		if k := fe.Kind(); k == reflect.Slice || k == reflect.Map {
			unit = "items"
		}
		return fmt.Sprintf("%s must be %s %s %s", field, bound, fe.Param(), unit)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "module":
		return field + " must be one of the known modules"
	case "duration":
		return field + " must be monthly or annual"
	case "quota":
		return field + " must be -1 (unlimited) or a non-negative number"
	}
	return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
}

var (
	sharedOnce sync.Once
	shared     *Validator
)

// Validate checks i with a process-wide validator
func Validate(i interface{}) []ValidationError {
	sharedOnce.Do(func() { shared = New() })
	return shared.Validate(i)
}
