package sessionkit

import (
	"time"

	"github.com/vitaltrace/sessionkit/credstore"
	"github.com/vitaltrace/sessionkit/remote"
)

// SessionState is the repository's lifecycle state.
type SessionState uint8

const (
	// StateLoggedOut is the initial state and the unconditional result
	// of Logout.
	StateLoggedOut SessionState = iota
	// StateAwaitingMFA means a login succeeded on the first factor and
	// a challenge is pending.
	StateAwaitingMFA
	// StateLoggedIn means a session with a cached profile is active.
	StateLoggedIn
)

func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAwaitingMFA:
		return "awaiting_mfa"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Roles recognized by the health backend. The repository treats roles
// as opaque strings; these are the values the backend issues today.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// UserProfile is the client-side view of the authenticated user.
type UserProfile struct {
	UserID      string
	DisplayName string
	Email       string
	Role        string
}

// Session is the active session owned by the repository. ExpiresAt is
// derived from the access token's exp claim when present, otherwise
// from the configured access-token lifetime; it is advisory — the
// backend remains authoritative.
type Session struct {
	User         UserProfile
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RegisterInput is the signup request. VerificationCode is optional and
// carries a pre-obtained email verification code.
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	Role             string
	VerificationCode string
}

func profileFromPayload(user remote.UserPayload) UserProfile {
	return UserProfile{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	}
}

func profileFromCached(user credstore.CachedUser) UserProfile {
	return UserProfile{
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	}
}

func cachedFromProfile(user UserProfile) credstore.CachedUser {
	return credstore.CachedUser{
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	}
}
