package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator is the echo.Validator for request DTOs and use case inputs.
// Besides the stock tags it knows distinct_emails, which rejects a slice of
// structs whose Email fields repeat ignoring case.
type CustomValidator struct {
	v *validator.Validate
}

func New() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("distinct_emails", distinctEmails)
	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func distinctEmails(fl validator.FieldLevel) bool {
	list := fl.Field()
	if list.Kind() != reflect.Slice {
		return false
	}
	seen := make(map[string]struct{}, list.Len())
	for i := 0; i < list.Len(); i++ {
		item := reflect.Indirect(list.Index(i))
		if item.Kind() != reflect.Struct {
			return false
		}
		email := item.FieldByName("Email")
		if !email.IsValid() || email.Kind() != reflect.String {
			return false
		}
		key := strings.ToLower(strings.TrimSpace(email.String()))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// Describe flattens validation errors into one message keyed by JSON field
// names, e.g. "participants: distinct_emails; title: required".
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
