package event_bus

const (
	// SessionChanged is published whenever tokens are created, replaced or destroyed.
	SessionChanged EventType = "session.changed"
	// ProfileChanged is published when the authenticated profile is set or reset.
	ProfileChanged EventType = "profile.changed"
)

type SessionReason string

const (
	ReasonLogin    SessionReason = "login"
	ReasonRefresh  SessionReason = "refresh"
	ReasonRestored SessionReason = "restored"
	ReasonLogout   SessionReason = "logout"
	ReasonExpired  SessionReason = "expired"
	ReasonCleared  SessionReason = "cleared"
)

// SessionState carries no token material, only whether a session exists.
type SessionState struct {
	Authenticated bool
	Reason        SessionReason
}

type ProfileState struct {
	UserId      string
	Email       string
	DisplayName string
}
