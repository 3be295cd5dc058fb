// Package validate checks contact-form submissions before the pipeline
// touches any external service.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/studioluxe/leadflow/internal/model"
)

// ErrInvalidFields is returned for every rejected submission. Field detail
// is kept on the wrapped error for server-side logs.
var ErrInvalidFields = eris.New("validate: invalid fields")

// Validator wraps a go-playground validator with the lead rules registered.
// It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the "budget" rule registered and JSON field
// names used in error reports.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("budget", func(fl validator.FieldLevel) bool {
		return model.Budget(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

// Submission validates sub and returns it unchanged on success.
func (val *Validator) Submission(sub model.LeadSubmission) (model.LeadSubmission, error) {
	if err := val.v.Struct(sub); err != nil {
		return model.LeadSubmission{}, &FieldError{Fields: failedFields(err), cause: err}
	}
	return sub, nil
}

// FieldError lists the fields that failed validation.
type FieldError struct {
	Fields []string
	cause  error
}

func (e *FieldError) Error() string {
	return ErrInvalidFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

// Is matches ErrInvalidFields.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidFields
}

func (e *FieldError) Unwrap() error {
	return e.cause
}

// Fields returns the failing field names from a validation error, or nil.
func Fields(err error) []string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}

func failedFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"submission"}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+":"+fe.Tag())
	}
	return fields
}
