package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// reservedCodes collide with fixed routes and would never redirect.
var reservedCodes = []string{"health", "metrics", "shorturls", "log"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names in error messages.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("shortcode", validateShortCode); err != nil {
		panic(err)
	}
	return v
}

func validateShortCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	return shortCodePattern.MatchString(code) && !slices.Contains(reservedCodes, strings.ToLower(code))
}

// validateRequest runs struct validation and flattens the failures into a
// single readable message.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, describeFieldError(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be an absolute URL", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "shortcode":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_' and must not be a reserved name", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
