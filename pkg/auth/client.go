package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/klokku/calmcash/pkg/api"
	log "github.com/sirupsen/logrus"
)

type ClientImpl struct {
	api *api.Client
}

func NewClient(baseURL string, httpClient *http.Client) *ClientImpl {
	return &ClientImpl{
		api: api.NewClient(baseURL, httpClient),
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (c *ClientImpl) Register(ctx context.Context, credentials Credentials) (TokenPair, error) {
	var tokens TokenPair
	err := c.api.JSON(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body: registerRequest{
			Email:       credentials.Email,
			Password:    credentials.Password,
			DisplayName: credentials.DisplayName,
		},
	}, &tokens)
	if err != nil {
		return TokenPair{}, err
	}
	return tokens, nil
}

func (c *ClientImpl) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var tokens TokenPair
	err := c.api.JSON(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Email: email, Password: password},
	}, &tokens)
	if err != nil {
		return TokenPair{}, err
	}
	return tokens, nil
}

// Refresh exchanges refreshToken for a new pair. The backend rotates refresh
// tokens, so the old one is unusable afterwards.
func (c *ClientImpl) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var tokens TokenPair
	err := c.api.JSON(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
		Body:   refreshRequest{RefreshToken: refreshToken},
	}, &tokens)
	if err != nil {
		return TokenPair{}, err
	}
	if !tokens.Complete() {
		return TokenPair{}, fmt.Errorf("refresh response is missing tokens")
	}
	return tokens, nil
}

func (c *ClientImpl) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.api.MaybeJSON(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Body:   refreshRequest{RefreshToken: refreshToken},
	}, nil)
	return err
}

func (c *ClientImpl) Me(ctx context.Context, accessToken string) (Profile, error) {
	var profile Profile
	err := c.api.JSON(ctx, api.Request{
		Path:        "/auth/me",
		AccessToken: accessToken,
	}, &profile)
	if err != nil {
		if !api.IsUnauthorized(err) {
			log.Errorf("Failed to fetch profile: %v", err)
		}
		return Profile{}, err
	}
	return profile, nil
}
