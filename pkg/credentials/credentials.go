package credentials

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/klokku/calmcash/pkg/api"
	"github.com/klokku/calmcash/pkg/auth"
)

const (
	maxEmailLength       = 254
	minDisplayNameLength = 6
	maxDisplayNameLength = 100
	minPasswordLength    = 12
	maxPasswordLength    = 128
)

const (
	InvalidEmailMessage       = "Please enter a valid email address."
	InvalidDisplayNameMessage = "Display name must be at least 6 characters."
	PasswordTooLongMessage    = "Password must be at most 128 characters."
	WeakPasswordMessage       = "Password does not meet the required complexity."
	IncorrectLoginMessage     = "Incorrect email or password. Please try again."
	registerFallbackMessage   = "We could not create your account. Please review your details and try again."
	loginFallbackMessage      = "We could not sign you in. Please check your credentials and try again."
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[^A-Za-z0-9]`)
)

type PasswordChecks struct {
	MinLength bool
	Upper     bool
	Lower     bool
	Number    bool
	Special   bool
}

func (c PasswordChecks) All() bool {
	return c.MinLength && c.Upper && c.Lower && c.Number && c.Special
}

func EvaluatePassword(password string) PasswordChecks {
	return PasswordChecks{
		MinLength: utf8.RuneCountInString(password) >= minPasswordLength,
		Upper:     upperPattern.MatchString(password),
		Lower:     lowerPattern.MatchString(password),
		Number:    digitPattern.MatchString(password),
		Special:   specialPattern.MatchString(password),
	}
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Result describes a login or register form. Field errors are only set for
// fields that have a value; CanSubmit additionally requires the mandatory
// fields.
type Result struct {
	CanSubmit        bool
	FirstError       string
	EmailError       string
	DisplayNameError string
	PasswordError    string
}

func Validate(mode auth.Mode, email, password, displayName string) Result {
	var result Result

	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	displayNameLength := utf8.RuneCountInString(displayName)

	if email != "" && (utf8.RuneCountInString(email) > maxEmailLength || !IsValidEmail(email)) {
		result.EmailError = InvalidEmailMessage
	}

	if mode == auth.ModeRegister && displayName != "" &&
		(displayNameLength < minDisplayNameLength || displayNameLength > maxDisplayNameLength) {
		result.DisplayNameError = InvalidDisplayNameMessage
	}

	if utf8.RuneCountInString(password) > maxPasswordLength {
		result.PasswordError = PasswordTooLongMessage
	} else if mode == auth.ModeRegister && password != "" && !EvaluatePassword(password).All() {
		result.PasswordError = WeakPasswordMessage
	}

	for _, msg := range []string{result.EmailError, result.DisplayNameError, result.PasswordError} {
		if msg != "" {
			result.FirstError = msg
			break
		}
	}

	hasRequired := email != "" && password != ""
	if mode == auth.ModeRegister {
		hasRequired = hasRequired && displayNameLength >= minDisplayNameLength
	}
	result.CanSubmit = hasRequired && result.FirstError == ""
	return result
}

// AuthErrorMessage renders a failed Authenticate for display. Rejected logins
// get one message so the response does not reveal which field was wrong.
func AuthErrorMessage(mode auth.Mode, err error) string {
	if mode == auth.ModeLogin {
		status := api.StatusOf(err)
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return IncorrectLoginMessage
		}
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "validation failed") {
			return IncorrectLoginMessage
		}
		return api.ErrorMessage(err, loginFallbackMessage)
	}
	return api.ErrorMessage(err, registerFallbackMessage)
}
