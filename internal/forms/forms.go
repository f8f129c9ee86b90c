// Package forms validates console form submissions and turns validator
// failures into per-field messages.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PhonePattern is the Ethiopian phone number format hospitals register with.
var PhonePattern = regexp.MustCompile(`^(\+251|0)(9|7)[0-9]{8}$`)

// Messages maps "field.tag" to the message shown for that failure.
type Messages map[string]string

// ValidationError carries one message per failing field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for a field, or "" if it passed.
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// FieldErrors extracts the field map from err, or nil if err is not a ValidationError.
func FieldErrors(err error) map[string]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// Validator wraps validator.Validate with the console's custom tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the et_phone tag registered and
// field names taken from form/json tags.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"form", "json"} {
			name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("et_phone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Check validates form and returns a *ValidationError describing every
// failing field, or nil.
func (v *Validator) Check(form any, msgs Messages) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = message(msgs, name, fe.Tag())
	}

	return &ValidationError{Fields: fields}
}

func message(msgs Messages, field, tag string) string {
	if m, ok := msgs[field+"."+tag]; ok {
		return m
	}
	if m, ok := msgs[field]; ok {
		return m
	}
	return fmt.Sprintf("%s is invalid", field)
}
