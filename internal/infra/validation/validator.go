package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"rentnow/internal/app/middleware"
	"rentnow/internal/domain/shared/daterange"
)

// FieldError describes one rejected field of a command or query.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	messages := make([]string, 0, len(e))
	for _, fe := range e {
		messages = append(messages, fe.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(e), strings.Join(messages, "; "))
}

// StructValidator checks `validate` tags on bus messages.
type StructValidator struct {
	validate *validator.Validate
}

func New() (*StructValidator, error) {
	v := validator.New()
	if err := v.RegisterValidation("isodate", validateISODate); err != nil {
		return nil, err
	}
	return &StructValidator{validate: v}, nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := daterange.ParseDate(fl.Field().String())
	return err == nil
}

func (v *StructValidator) Validate(_ context.Context, message any) error {
	if message == nil {
		return nil
	}
	if err := v.validate.Struct(message); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return translate(fieldErrs)
		}
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return err
	}
	return nil
}

func translate(errs validator.ValidationErrors) Errors {
	out := make(Errors, 0, len(errs))
	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "isodate":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "lte", "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("%s must have length %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}
		out = append(out, FieldError{Field: err.Field(), Message: message})
	}
	return out
}

var _ middleware.Validator = (*StructValidator)(nil)
