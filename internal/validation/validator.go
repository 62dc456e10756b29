// Package validation validates configuration structs using the validator/v10
// library and reports failures by their file field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error lists the fields that failed validation, keyed by field path
// (e.g. "chains[0].keywords").
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	paths := make([]string, 0, len(e.Fields))
	for p := range e.Fields {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, p+" "+e.Fields[p])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with field-path error reporting.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their yaml tag, falling back
// to the json tag and then the Go field name.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"yaml", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns an *Error describing every failed field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[fieldPath(e.Namespace())] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

// fieldPath drops the root struct name from a namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return "is required when " + e.Param() + " is set"
	case "url":
		return "must be a valid URL"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
