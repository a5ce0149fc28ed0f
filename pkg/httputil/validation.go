package httputil

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/i18n"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})

	return v
}

// Validate validates a struct and returns a Validation AppError whose
// details are localized for the request.
func Validate(ctx context.Context, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.BadRequest(err.Error())
	}

	loc := i18n.LocalizerFromContext(ctx)
	details := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		details[e.Field()] = formatValidationError(loc, e)
	}
	return errors.Validation(details)
}

func formatValidationError(loc *i18n.Localizer, e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if", "required_with":
		return loc.T("validation.required")
	case "email", "min", "max", "oneof", "uuid", "date", "gtefield":
		return loc.T("validation."+e.Tag(), map[string]string{"param": e.Param()})
	case "gte":
		return loc.T("validation.min", map[string]string{"param": e.Param()})
	case "lte":
		return loc.T("validation.max", map[string]string{"param": e.Param()})
	default:
		return loc.T("validation.invalid")
	}
}
