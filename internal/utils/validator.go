// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/agriconnect-backend/internal/i18n"
)

var validate = newValidator()

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)

var customRules = map[string]validator.Func{
	"strong_password":  validateStrongPassword,
	"registrable_role": validateRegistrableRole,
	"phone":            validatePhone,
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return strings.ToLower(f.Name)
		}
		return name
	})
	for tag, fn := range customRules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasLetter, hasNumber bool
	for _, r := range password {
		hasLetter = hasLetter || unicode.IsLetter(r)
		hasNumber = hasNumber || unicode.IsNumber(r)
	}
	return hasLetter && hasNumber
}

// Self-registration may only pick farmer or buyer; admins are seeded.
func validateRegistrableRole(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	return role == "farmer" || role == "buyer"
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// GetValidationErrors flattens validator errors into per-field entries with
// messages in lang. Any other error yields nil.
func GetValidationErrors(err error, lang string) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: validationMessage(e, lang),
		})
	}
	return out
}

func validationMessage(e validator.FieldError, lang string) string {
	key := i18n.KeyValidationPrefix + e.Tag()
	args := []interface{}{e.Field()}
	if e.Param() != "" {
		args = append(args, e.Param())
	}
	if msg := i18n.T(lang, key, args...); msg != key {
		return msg
	}
	return i18n.T(lang, i18n.KeyValidationInvalid, e.Field())
}
