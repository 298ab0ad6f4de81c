package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/klokku/calmcash/pkg/api"
)

// ClientStub is an in-memory auth backend. It issues numbered tokens, rotates
// refresh tokens on every refresh and answers 401 for unknown tokens.
type ClientStub struct {
	mu            sync.Mutex
	users         map[string]stubUser // email -> user
	access        map[string]string   // access token -> email
	refresh       map[string]string   // refresh token -> email
	issued        int
	refreshCalls  int
	logoutCalls   int
	registerErr   error
	loginErr      error
	refreshErr    error
	logoutErr     error
	meErr         error
	beforeRefresh func()
}

type stubUser struct {
	password string
	profile  Profile
}

func NewClientStub() *ClientStub {
	return &ClientStub{
		users:   make(map[string]stubUser),
		access:  make(map[string]string),
		refresh: make(map[string]string),
	}
}

var _ Client = (*ClientStub)(nil)

func unauthorized(message string) error {
	return &api.APIError{Status: http.StatusUnauthorized, Message: message}
}

func (c *ClientStub) AddUser(email, password, displayName string) Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	profile := Profile{UserId: uuid.NewString(), Email: email, DisplayName: displayName}
	c.users[email] = stubUser{password: password, profile: profile}
	return profile
}

// IssueTokens creates a valid pair for an existing user without a login call.
func (c *ClientStub) IssueTokens(email string) TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issueLocked(email)
}

func (c *ClientStub) issueLocked(email string) TokenPair {
	c.issued++
	pair := TokenPair{
		AccessToken:  fmt.Sprintf("access-%d", c.issued),
		RefreshToken: fmt.Sprintf("refresh-%d", c.issued),
	}
	c.access[pair.AccessToken] = email
	c.refresh[pair.RefreshToken] = email
	return pair
}

// ExpireAccessTokens invalidates every access token issued so far.
func (c *ClientStub) ExpireAccessTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = make(map[string]string)
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (c *ClientStub) RevokeRefreshTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = make(map[string]string)
}

// ValidAccess reports whether token would be accepted by the backend.
func (c *ClientStub) ValidAccess(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.access[token]
	return ok
}

func (c *ClientStub) RefreshCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshCalls
}

func (c *ClientStub) LogoutCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logoutCalls
}

// SetBeforeRefresh installs a hook run at the start of every Refresh call,
// outside the stub's lock.
func (c *ClientStub) SetBeforeRefresh(hook func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beforeRefresh = hook
}

func (c *ClientStub) SetRegisterError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerErr = err
}

func (c *ClientStub) SetLoginError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loginErr = err
}

func (c *ClientStub) SetRefreshError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshErr = err
}

func (c *ClientStub) SetLogoutError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logoutErr = err
}

func (c *ClientStub) SetMeError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meErr = err
}

func (c *ClientStub) Register(ctx context.Context, credentials Credentials) (TokenPair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registerErr != nil {
		return TokenPair{}, c.registerErr
	}
	if _, exists := c.users[credentials.Email]; exists {
		return TokenPair{}, &api.APIError{Status: http.StatusConflict, Message: "Email already registered"}
	}
	c.users[credentials.Email] = stubUser{
		password: credentials.Password,
		profile:  Profile{UserId: uuid.NewString(), Email: credentials.Email, DisplayName: credentials.DisplayName},
	}
	return c.issueLocked(credentials.Email), nil
}

func (c *ClientStub) Login(ctx context.Context, email, password string) (TokenPair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loginErr != nil {
		return TokenPair{}, c.loginErr
	}
	user, ok := c.users[email]
	if !ok || user.password != password {
		return TokenPair{}, unauthorized("Invalid credentials")
	}
	return c.issueLocked(email), nil
}

func (c *ClientStub) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	c.mu.Lock()
	c.refreshCalls++
	hook := c.beforeRefresh
	c.mu.Unlock()

	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return TokenPair{}, err
	}
	if c.refreshErr != nil {
		return TokenPair{}, c.refreshErr
	}
	email, ok := c.refresh[refreshToken]
	if !ok {
		return TokenPair{}, unauthorized("Invalid refresh token")
	}
	delete(c.refresh, refreshToken)
	return c.issueLocked(email), nil
}

func (c *ClientStub) Logout(ctx context.Context, refreshToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logoutCalls++
	if c.logoutErr != nil {
		return c.logoutErr
	}
	delete(c.refresh, refreshToken)
	return nil
}

func (c *ClientStub) Me(ctx context.Context, accessToken string) (Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.meErr != nil {
		return Profile{}, c.meErr
	}
	email, ok := c.access[accessToken]
	if !ok {
		return Profile{}, unauthorized("Unauthorized")
	}
	return c.users[email].profile, nil
}
