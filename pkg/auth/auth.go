package auth

import (
	"context"
	"fmt"
)

type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLogin, ModeRegister:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown auth mode %q", s)
}

// Credentials are the form fields of login and register. DisplayName is
// ignored on login.
type Credentials struct {
	Email       string
	Password    string
	DisplayName string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both tokens are present.
func (t TokenPair) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

type Profile struct {
	UserId      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type Client interface {
	// POST /auth/register
	Register(ctx context.Context, credentials Credentials) (TokenPair, error)
	// POST /auth/login
	Login(ctx context.Context, email, password string) (TokenPair, error)
	// POST /auth/refresh
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	// POST /auth/logout
	Logout(ctx context.Context, refreshToken string) error
	// GET /auth/me
	Me(ctx context.Context, accessToken string) (Profile, error)
}
