package session

import (
	"context"
	"errors"

	"github.com/klokku/calmcash/pkg/api"
	log "github.com/sirupsen/logrus"
)

// WithValidAccess runs op with the current access token. When op fails with a
// 401 the session is refreshed once and op is retried once with the new token.
// If the refresh fails the session is cleared and op's original error is
// returned. Other errors are returned as-is without refreshing.
func WithValidAccess[T any](ctx context.Context, m *Manager, op func(ctx context.Context, accessToken string) (T, error)) (T, error) {
	var zero T

	used, ok := m.Tokens()
	if !ok {
		return zero, ErrNoSession
	}

	result, err := op(ctx, used.AccessToken)
	if err == nil || !api.IsUnauthorized(err) {
		return result, err
	}

	log.Debug("access token rejected, refreshing session")
	refreshed, refreshErr := m.refresh(ctx, used)
	if refreshErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(refreshErr, ctxErr) {
			return zero, ctxErr
		}
		return zero, err
	}

	return op(ctx, refreshed.AccessToken)
}

// refresh returns tokens newer than used. Concurrent callers holding the same
// refresh token share one backend call. A caller that gives up through ctx
// does not cancel the shared call.
func (m *Manager) refresh(ctx context.Context, used Tokens) (Tokens, error) {
	current, ok := m.Tokens()
	if !ok {
		return Tokens{}, ErrNoSession
	}
	if current.AccessToken != used.AccessToken {
		log.Debug("session already refreshed, retrying with current token")
		return current, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := m.refreshes.DoChan(used.RefreshToken, func() (any, error) {
		return m.runRefresh(flightCtx, used.RefreshToken)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Tokens{}, res.Err
		}
		if res.Shared {
			log.Trace("joined in-flight session refresh")
		}
		return res.Val.(Tokens), nil
	case <-ctx.Done():
		return Tokens{}, ctx.Err()
	}
}

func (m *Manager) runRefresh(ctx context.Context, refreshToken string) (Tokens, error) {
	// a flight started for a rotated token must not spend it again
	current, ok := m.Tokens()
	if !ok {
		return Tokens{}, ErrNoSession
	}
	if current.RefreshToken != refreshToken {
		return current, nil
	}

	pair, err := m.client.Refresh(ctx, refreshToken)
	if err != nil {
		log.Warnf("session refresh failed: %v", err)
		m.clearIfCurrent(ctx, refreshToken)
		return Tokens{}, err
	}
	next := Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if !next.complete() {
		m.clearIfCurrent(ctx, refreshToken)
		return Tokens{}, ErrIncompleteTokens
	}

	installed, ok := m.swapIfCurrent(ctx, refreshToken, next)
	if !ok {
		return Tokens{}, ErrNoSession
	}
	log.Debug("session refreshed")
	return installed, nil
}
