package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/klokku/calmcash/internal/event_bus"
	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/kv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// StorageKey is the key-value entry holding the persisted Tokens as JSON.
const StorageKey = "calm_cash_auth"

var (
	ErrNoSession        = errors.New("no active session")
	ErrIncompleteTokens = errors.New("authentication response is missing tokens")
)

// Tokens is a complete session. A Manager never holds a partial one.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (t Tokens) complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// Manager owns the session tokens and the profile derived from them. It is
// safe for concurrent use.
type Manager struct {
	store  kv.Store
	client auth.Client
	bus    *event_bus.EventBus

	mu      sync.RWMutex
	tokens  *Tokens
	profile *auth.Profile

	refreshes singleflight.Group
}

// NewManager creates an unauthenticated manager. Call Load to restore a
// persisted session. bus may be nil.
func NewManager(store kv.Store, client auth.Client, bus *event_bus.EventBus) *Manager {
	return &Manager{
		store:  store,
		client: client,
		bus:    bus,
	}
}

// Load restores the persisted session. Malformed or partial state is deleted
// and the manager stays unauthenticated.
func (m *Manager) Load(ctx context.Context) {
	raw, err := m.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		log.Debug("no persisted session")
		return
	}
	if err != nil {
		log.Warnf("unable to read persisted session: %v", err)
		return
	}

	var tokens Tokens
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil || !tokens.complete() {
		log.Warn("discarding malformed persisted session")
		if err := m.store.Delete(ctx, StorageKey); err != nil {
			log.Warnf("unable to delete malformed session: %v", err)
		}
		return
	}

	m.mu.Lock()
	m.tokens = &tokens
	m.mu.Unlock()

	log.Debug("persisted session restored")
	m.publishSession(ctx, true, event_bus.ReasonRestored)
}

// Authenticate logs in or registers and replaces the current session. Backend
// errors are returned unchanged and leave the current state untouched.
func (m *Manager) Authenticate(ctx context.Context, mode auth.Mode, credentials auth.Credentials) error {
	var (
		pair auth.TokenPair
		err  error
	)
	switch mode {
	case auth.ModeLogin:
		pair, err = m.client.Login(ctx, credentials.Email, credentials.Password)
	case auth.ModeRegister:
		pair, err = m.client.Register(ctx, credentials)
	default:
		return fmt.Errorf("unknown auth mode %q", mode)
	}
	if err != nil {
		return err
	}

	tokens := Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if !tokens.complete() {
		return ErrIncompleteTokens
	}

	m.mu.Lock()
	if err := m.persistLocked(ctx, tokens); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persisting session: %w", err)
	}
	m.tokens = &tokens
	hadProfile := m.profile != nil
	m.profile = nil
	m.mu.Unlock()

	log.Infof("%s succeeded", mode)
	m.publishSession(ctx, true, event_bus.ReasonLogin)
	if hadProfile {
		m.publishProfile(ctx, auth.Profile{})
	}
	return nil
}

// Do is the non-generic form of WithValidAccess.
func (m *Manager) Do(ctx context.Context, op func(ctx context.Context, accessToken string) error) error {
	_, err := WithValidAccess(ctx, m, func(ctx context.Context, accessToken string) (struct{}, error) {
		return struct{}{}, op(ctx, accessToken)
	})
	return err
}

// Logout revokes the refresh token on the backend when possible and always
// clears the local session.
func (m *Manager) Logout(ctx context.Context) {
	if tokens, ok := m.Tokens(); ok {
		if err := m.client.Logout(ctx, tokens.RefreshToken); err != nil {
			log.Warnf("backend logout failed, clearing local session anyway: %v", err)
		}
	}
	m.clear(ctx, event_bus.ReasonLogout)
}

// ClearSession wipes tokens, profile and persisted state. It is idempotent.
func (m *Manager) ClearSession(ctx context.Context) {
	m.clear(ctx, event_bus.ReasonCleared)
}

// Expire clears the session after the backend rejected it for good.
func (m *Manager) Expire(ctx context.Context) {
	m.clear(ctx, event_bus.ReasonExpired)
}

func (m *Manager) Tokens() (Tokens, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tokens == nil {
		return Tokens{}, false
	}
	return *m.tokens, true
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Tokens()
	return ok
}

func (m *Manager) Profile() (auth.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return auth.Profile{}, false
	}
	return *m.profile, true
}

// SetProfile records the profile of the current session. It is ignored when
// there is no session so a late response cannot outlive a logout.
func (m *Manager) SetProfile(ctx context.Context, profile auth.Profile) {
	m.mu.Lock()
	if m.tokens == nil {
		m.mu.Unlock()
		log.Debug("ignoring profile for a destroyed session")
		return
	}
	m.profile = &profile
	m.mu.Unlock()

	m.publishProfile(ctx, profile)
}

// RefreshProfile fetches the profile through the access guard and stores it.
func (m *Manager) RefreshProfile(ctx context.Context) (auth.Profile, error) {
	profile, err := WithValidAccess(ctx, m, m.client.Me)
	if err != nil {
		return auth.Profile{}, err
	}
	m.SetProfile(ctx, profile)
	return profile, nil
}

func (m *Manager) clear(ctx context.Context, reason event_bus.SessionReason) {
	m.mu.Lock()
	hadTokens := m.tokens != nil
	hadProfile := m.profile != nil
	m.tokens = nil
	m.profile = nil
	m.deleteLocked(ctx)
	m.mu.Unlock()

	if hadTokens {
		log.Infof("session ended: %s", reason)
		m.publishSession(ctx, false, reason)
	}
	if hadProfile {
		m.publishProfile(ctx, auth.Profile{})
	}
}

// clearIfCurrent clears the session only while refreshToken is still the live
// one, so a failed refresh cannot destroy a session created after it started.
func (m *Manager) clearIfCurrent(ctx context.Context, refreshToken string) {
	m.mu.Lock()
	if m.tokens == nil || m.tokens.RefreshToken != refreshToken {
		m.mu.Unlock()
		return
	}
	hadProfile := m.profile != nil
	m.tokens = nil
	m.profile = nil
	m.deleteLocked(ctx)
	m.mu.Unlock()

	log.Info("session ended: refresh rejected")
	m.publishSession(ctx, false, event_bus.ReasonExpired)
	if hadProfile {
		m.publishProfile(ctx, auth.Profile{})
	}
}

// swapIfCurrent installs next when refreshToken is still the live one and
// reports the tokens the manager holds afterwards.
func (m *Manager) swapIfCurrent(ctx context.Context, refreshToken string, next Tokens) (Tokens, bool) {
	m.mu.Lock()
	if m.tokens == nil {
		m.mu.Unlock()
		return Tokens{}, false
	}
	if m.tokens.RefreshToken != refreshToken {
		current := *m.tokens
		m.mu.Unlock()
		return current, true
	}
	if err := m.persistLocked(ctx, next); err != nil {
		log.Errorf("unable to persist refreshed session, keeping it in memory: %v", err)
	}
	m.tokens = &next
	m.mu.Unlock()

	m.publishSession(ctx, true, event_bus.ReasonRefresh)
	return next, true
}

func (m *Manager) persistLocked(ctx context.Context, tokens Tokens) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, StorageKey, string(raw))
}

func (m *Manager) deleteLocked(ctx context.Context) {
	if err := m.store.Delete(context.WithoutCancel(ctx), StorageKey); err != nil {
		log.Errorf("unable to delete persisted session: %v", err)
	}
}

func (m *Manager) publishSession(ctx context.Context, authenticated bool, reason event_bus.SessionReason) {
	m.publish(ctx, event_bus.SessionChanged, event_bus.SessionState{Authenticated: authenticated, Reason: reason})
}

func (m *Manager) publishProfile(ctx context.Context, profile auth.Profile) {
	m.publish(ctx, event_bus.ProfileChanged, event_bus.ProfileState{
		UserId:      profile.UserId,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
	})
}

func (m *Manager) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), eventType, data)); err != nil {
		log.Warnf("session event %s not fully delivered: %v", eventType, err)
	}
}
