package utils

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	shared "github.com/smartwaste/bin-registry/shared/go-utils"
)

var (
	phoneCharsRegex = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
	minPhoneDigits  = 10
)

// IsLoosePhone accepts an optional leading +, digits, spaces, hyphens and
// parentheses, with at least ten digits overall.
func IsLoosePhone(s string) bool {
	if !phoneCharsRegex.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// NewValidator returns a validator that reports json field names and knows
// the lat, lng and phone_loose tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("lat", func(fl validator.FieldLevel) bool {
		lat := fl.Field().Float()
		return !math.IsNaN(lat) && lat >= -90 && lat <= 90
	})
	_ = v.RegisterValidation("lng", func(fl validator.FieldLevel) bool {
		lng := fl.Field().Float()
		return !math.IsNaN(lng) && lng >= -180 && lng <= 180
	})
	_ = v.RegisterValidation("phone_loose", func(fl validator.FieldLevel) bool {
		return IsLoosePhone(fl.Field().String())
	})
	return v
}

// ToValidationError converts validator output into a field-scoped error.
// Other errors are returned unchanged.
func ToValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := shared.NewValidationError()
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe.Namespace()), fieldMessage(fe))
	}
	return out
}

// fieldPath drops the root struct name: "binRules.contact.phone" -> "contact.phone".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone_loose":
		return "must contain at least 10 digits and only +, spaces, hyphens or parentheses"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "lat":
		return "latitude must be between -90 and 90"
	case "lng":
		return "longitude must be between -180 and 180"
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
