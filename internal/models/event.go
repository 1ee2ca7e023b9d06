package models

// AuthEventType names a backend-pushed auth state change.
type AuthEventType string

const (
	EventInitialSession AuthEventType = "INITIAL_SESSION"
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is one pushed change. Session is nil for SIGNED_OUT and for an
// INITIAL_SESSION with nothing stored.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}
