package user

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so clients can map errors back to form fields
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return sf.Name
		}
		return name
	})

	if err := v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"msg"`
}

// ValidationError is the Invalid arm of a form check; a nil error is Ok.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func validateStruct(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}

	return &ValidationError{Fields: FieldErrors(verrs)}
}

// FieldErrors converts validator output into the API's field error shape.
func FieldErrors(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(verrs))

	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: Message(fe.Field(), fe.Tag(), fe.Param()),
		})
	}

	return fields
}

// Message renders the human text for a failed rule.
func Message(field, rule, param string) string {
	switch {
	case rule == "phone10":
		return "Phone number must be 10 digits"
	case field == "password" && rule == "min":
		return "Password must be at least " + param + " characters long"
	case field == "email" && rule == "email":
		return "Email is required"
	case rule == "required":
		return requiredMessage(field)
	}

	switch rule {
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}

func requiredMessage(field string) string {
	switch field {
	case "firstname":
		return "First name is required"
	case "lastname":
		return "Last name is required"
	case "phone":
		return "Phone number is required"
	case "email":
		return "Email is required"
	case "password":
		return "Password is required"
	default:
		return "is required"
	}
}
