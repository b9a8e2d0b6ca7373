package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)

	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with custom rules registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		configureValidator(validate)
	})
	return validate
}

func configureValidator(v *validator.Validate) {
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(PasswordProblems(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// ValidateStruct checks s against its validate tags. Failures come back as a
// MultiError of ValidationError, one per offending field.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError("", err.Error())
	}

	multi := NewMultiError()
	for _, fe := range fieldErrs {
		multi.Add(NewValidationError(fe.Field(), describe(fe)))
	}
	return multi.ErrorOrNil()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "invalid email format"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "lte":
		return fmt.Sprintf("value %v is out of range", fe.Value())
	case "password":
		value, _ := fe.Value().(string)
		return strings.Join(PasswordProblems(value), "; ")
	case "phone":
		return "invalid phone number"
	case "url":
		return "invalid URL format"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// PasswordProblems lists every strength rule the password breaks
func PasswordProblems(password string) []string {
	var problems []string

	if len(password) < 8 {
		problems = append(problems, "password must be at least 8 characters long")
	}
	if !strings.ContainsFunc(password, isUpper) {
		problems = append(problems, "password must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(password, isLower) {
		problems = append(problems, "password must contain at least one lowercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		problems = append(problems, "password must contain at least one number")
	}
	if !specialPattern.MatchString(password) {
		problems = append(problems, "password must contain at least one special character")
	}

	return problems
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

// ValidatePhone validates a phone number, ignoring spaces and dashes
func ValidatePhone(phone string) error {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(phone)
	if !phonePattern.MatchString(cleaned) {
		return fmt.Errorf("invalid phone number")
	}
	return nil
}

// ValidateURL validates an http(s) URL
func ValidateURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("URL is required")
	}
	if err := Validator().Var(url, "http_url"); err != nil {
		return fmt.Errorf("invalid URL format")
	}
	return nil
}
