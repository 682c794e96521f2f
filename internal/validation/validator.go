// Package validation runs struct-tag validation and reports failures by JSON
// field name.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps a validator instance configured to name fields after their
// json tags.
type Validator struct {
	validate *validator.Validate
}

// Errors maps a JSON field name to the rule it failed.
type Errors map[string]string

// Valid checks if there are any validation errors
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// New creates a new validator
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Check validates s and returns the failing fields. Nested fields are
// reported with dotted paths, e.g. "customer.email".
func (v *Validator) Check(s interface{}) Errors {
	errs := Errors{}
	err := v.validate.Struct(s)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		errs[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return errs
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
