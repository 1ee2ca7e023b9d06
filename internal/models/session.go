package models

import "time"

// User is the auth record the backend returns for a credential.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// Session is an issued credential pair plus the user it belongs to.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user,omitempty"`
}

// Expired reports whether the access token is expired, or will be within margin, at now.
// A zero ExpiresAt is treated as unknown and never expired.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(s.ExpiresAt)
}

// UserID returns the owning user's id or "".
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

// SignUpMetadata is attached to a new account. Role picks which sub-profile
// is provisioned; BusinessName and VehicleNumber feed it.
type SignUpMetadata struct {
	Role          Role   `json:"role" validate:"required,oneof=merchant driver customer"`
	FullName      string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=32"`
	BusinessName  string `json:"business_name,omitempty" validate:"required_if=Role merchant,max=200"`
	VehicleNumber string `json:"vehicle_number,omitempty" validate:"omitempty,max=32"`
}

// Map renders m as the free-form metadata map sent to the backend.
func (m SignUpMetadata) Map() map[string]any {
	out := map[string]any{"role": string(m.Role)}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("full_name", m.FullName)
	put("phone", m.Phone)
	put("business_name", m.BusinessName)
	put("vehicle_number", m.VehicleNumber)
	return out
}

// AuthResponse is what sign-in and sign-up yield. Session is nil when the
// account still needs confirmation.
type AuthResponse struct {
	Session *Session `json:"session,omitempty"`
	User    *User    `json:"user,omitempty"`
}
