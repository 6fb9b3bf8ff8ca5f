package shared

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/compass-pm/compass/internal/upstream"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations against json field names so inline form errors
	// line up with the payload the client sent.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return strings.ToLower(field.Name)
		}
		return tag
	})
	return v
}

// ValidateStruct checks the input payload, mapping violations into the same
// field-error shape the backend returns for 422 responses.
func ValidateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return err
	}
	fields := make([]upstream.FieldError, 0, len(violations))
	for _, violation := range violations {
		fields = append(fields, upstream.FieldError{
			Field:   violation.Field(),
			Message: violationMessage(violation),
		})
	}
	return &upstream.Error{
		Kind:    upstream.KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Message: "validation failed",
		Fields:  fields,
	}
}

func violationMessage(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return "required"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gt":
		return "must be positive"
	case "oneof":
		return "not an allowed value"
	case "email":
		return "not a valid email address"
	default:
		return "invalid"
	}
}
