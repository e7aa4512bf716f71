// Package validator wraps go-playground/validator and turns its errors into
// per-field, human-readable messages keyed by the JSON field name.
package validator

import (
	"reflect"
	"strings"
	"sync"

	v10 "github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *v10.Validate
)

// messages maps "<json field>.<tag>" to the text shown to the user.
var messages = map[string]string{
	"first_name.required":           "First name required",
	"last_name.required":            "Last name required",
	"email.required":                "Email is required",
	"email.email":                   "Invalid email address",
	"password.required":             "Password is required",
	"password.min":                  "Password is too short - should be 8 chars minimum.",
	"password_confirmation.eqfield": "Password must match",
}

// New returns the shared validator instance.
func New() *v10.Validate {
	once.Do(func() {
		v = v10.New(v10.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return v
}

// ValidateStruct validates s and returns a map of field name to message.
// Only the first failing rule of each field is reported.
func ValidateStruct(s any) (map[string]string, error) {
	err := New().Struct(s)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(v10.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}, err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = msgForTag(fe)
	}
	return fields, err
}

func msgForTag(fe v10.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "too short"
	case "eqfield":
		return "must match " + strings.ToLower(fe.Param())
	default:
		return fe.Error()
	}
}
