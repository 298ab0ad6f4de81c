package credentials

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/klokku/calmcash/pkg/api"
	"github.com/klokku/calmcash/pkg/auth"
	"github.com/stretchr/testify/assert"
)

const strongPassword = "Correct-Horse-9"

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mode        auth.Mode
		email       string
		password    string
		displayName string
		canSubmit   bool
		firstError  string
	}{
		{name: "valid login", mode: auth.ModeLogin, email: " ada@example.com ", password: "short", canSubmit: true},
		{name: "empty login", mode: auth.ModeLogin},
		{name: "invalid email", mode: auth.ModeLogin, email: "ada@example", password: "x", firstError: InvalidEmailMessage},
		{name: "email with spaces", mode: auth.ModeLogin, email: "ada lovelace@example.com", password: "x", firstError: InvalidEmailMessage},
		{name: "too long email", mode: auth.ModeLogin, email: strings.Repeat("a", 250) + "@example.com", password: "x", firstError: InvalidEmailMessage},
		{name: "too long password on login", mode: auth.ModeLogin, email: "ada@example.com", password: strings.Repeat("a", 129), firstError: PasswordTooLongMessage},
		{name: "valid register", mode: auth.ModeRegister, email: "ada@example.com", password: strongPassword, displayName: "Ada Lovelace", canSubmit: true},
		{name: "short display name", mode: auth.ModeRegister, email: "ada@example.com", password: strongPassword, displayName: "Ada", firstError: InvalidDisplayNameMessage},
		{name: "missing display name", mode: auth.ModeRegister, email: "ada@example.com", password: strongPassword},
		{name: "weak password", mode: auth.ModeRegister, email: "ada@example.com", password: "alllowercase1!", displayName: "Ada Lovelace", firstError: WeakPasswordMessage},
		{name: "password without special", mode: auth.ModeRegister, email: "ada@example.com", password: "CorrectHorse99", displayName: "Ada Lovelace", firstError: WeakPasswordMessage},
		{name: "email error comes first", mode: auth.ModeRegister, email: "bad", password: "weak", displayName: "Ada", firstError: InvalidEmailMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.mode, tt.email, tt.password, tt.displayName)

			assert.Equal(t, tt.canSubmit, result.CanSubmit)
			assert.Equal(t, tt.firstError, result.FirstError)
		})
	}
}

func TestEvaluatePassword(t *testing.T) {
	assert.Equal(t, PasswordChecks{MinLength: true, Upper: true, Lower: true, Number: true, Special: true}, EvaluatePassword(strongPassword))
	assert.Equal(t, PasswordChecks{Lower: true}, EvaluatePassword("abc"))
}

func TestAuthErrorMessage(t *testing.T) {
	assert.Equal(t, IncorrectLoginMessage, AuthErrorMessage(auth.ModeLogin, &api.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}))
	assert.Equal(t, IncorrectLoginMessage, AuthErrorMessage(auth.ModeLogin, &api.APIError{Status: http.StatusBadRequest, Message: "Validation failed"}))
	assert.Equal(t, "Too many attempts", AuthErrorMessage(auth.ModeLogin, &api.APIError{Status: http.StatusTooManyRequests, Message: "Too many attempts"}))
	assert.Equal(t, "Email already registered", AuthErrorMessage(auth.ModeRegister, &api.APIError{Status: http.StatusConflict, Message: "Email already registered"}))
	assert.Equal(t, "Validation failed: password: too weak", AuthErrorMessage(auth.ModeRegister, &api.APIError{Status: http.StatusBadRequest, Message: "Validation failed", Details: []string{"password: too weak"}}))
	assert.Equal(t, "dial tcp: refused", AuthErrorMessage(auth.ModeLogin, errors.New("dial tcp: refused")))
	assert.Equal(t, IncorrectLoginMessage, AuthErrorMessage(auth.ModeLogin, fmt.Errorf("login: %w", &api.APIError{Status: http.StatusUnauthorized})))
}
