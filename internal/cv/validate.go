package cv

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps offending field names (wire names, not Go names) to a
// user-facing message. A nil map means the value passed validation. It is a
// rejected result, never a panic.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidatePersonalInfo checks the step-one slice against its schema.
func ValidatePersonalInfo(p PersonalInfo) FieldErrors {
	errs := check(p)
	// Photo is optional, but a local-file photo must actually carry bytes.
	if p.Photo.Kind == PhotoLocalFile && len(p.Photo.Data) == 0 {
		if errs == nil {
			errs = FieldErrors{}
		}
		errs["photo"] = "a valid photo file is required"
	}
	return errs
}

// ValidateExperience checks one work-history entry. A missing end date is
// reported against the endDate field unless the current-job flag is set.
func ValidateExperience(e Experience) FieldErrors { return check(e) }

// ValidateEducation checks one education entry with the conditional end-date
// rule keyed on currentStudy.
func ValidateEducation(e Education) FieldErrors { return check(e) }

// ValidateSkill checks a skill name and its proficiency level.
func ValidateSkill(s Skill) FieldErrors { return check(s) }

// ValidateLanguage checks a language name and its proficiency level.
func ValidateLanguage(l Language) FieldErrors { return check(l) }

func check(value any) FieldErrors {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError only happens on non-struct input, which the
		// typed wrappers above rule out.
		return FieldErrors{"_": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "required_if":
		return "end date is required unless marked as current"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return "invalid value"
	}
}
