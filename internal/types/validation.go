package types

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Mode selects which presence rules apply to a RecipeRequest.
type Mode int

const (
	// ModeCreate requires name.
	ModeCreate Mode = iota
	// ModeReplace requires name and description.
	ModeReplace
	// ModePartial requires nothing; present fields must still be valid.
	ModePartial
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNull     = "This field may not be null."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError reports field-level problems with a request, keyed by the
// field's JSON path (for example "ingredients[1].name").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// Validate normalizes the request and checks it against the rules for mode.
// It returns a *ValidationError when any field is invalid.
func (r *RecipeRequest) Validate(mode Mode) error {
	r.Normalize()

	verr := &ValidationError{}

	for _, field := range r.nulls {
		verr.add(field, msgNull)
	}
	for i, ing := range r.Ingredients {
		if ing.null {
			verr.add(fmt.Sprintf("ingredients[%d]", i), msgNull)
		}
		for _, field := range ing.nulls {
			verr.add(fmt.Sprintf("ingredients[%d].%s", i, field), msgNull)
		}
	}

	switch mode {
	case ModeCreate:
		if r.Name == nil {
			verr.add("name", msgRequired)
		}
	case ModeReplace:
		if r.Name == nil {
			verr.add("name", msgRequired)
		}
		if r.Description == nil {
			verr.add("description", msgRequired)
		}
	}

	for i, ing := range r.Ingredients {
		if ing.Name == nil && !ing.null {
			verr.add(fmt.Sprintf("ingredients[%d].name", i), msgRequired)
		}
	}

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.add(fieldPath(fe), fieldMessage(fe))
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// fieldPath drops the struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		return msgBlank
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
