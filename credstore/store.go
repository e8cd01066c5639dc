// Package credstore persists the client's current session tokens and
// the last-known user profile.
//
// The whole session lives in a single versioned record so token and
// profile writes are atomic with respect to reads: a reader sees either
// the previous record or the new one, never a half-written session.
package credstore

import (
	"context"
	"errors"
	"time"
)

// CachedUser is the last-known profile snapshot. It may be stale
// relative to the backend's authoritative state; callers treat it as
// advisory.
type CachedUser struct {
	UserID      string
	DisplayName string
	Email       string
	Role        string
}

// Record is the persisted session: tokens plus cached profile.
type Record struct {
	User           CachedUser
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt int64
	SavedAt        int64
}

// ErrBackendUnavailable indicates the underlying storage could not be
// reached.
var ErrBackendUnavailable = errors.New("credential store unavailable")

// Store is the credential-store capability. Implementations are
// single-writer: SaveToken/CacheUser/Clear merge into one record and
// each write is atomic against LastRecord.
type Store interface {
	// SaveToken stores the token pair, keeping any cached user.
	SaveToken(ctx context.Context, access, refresh string, expiresAt time.Time) error
	// CacheUser stores the profile snapshot, keeping any saved tokens.
	CacheUser(ctx context.Context, user CachedUser) error
	// LastRecord returns the current record, or (nil, nil) when the
	// store is empty.
	LastRecord(ctx context.Context) (*Record, error)
	// Clear drops tokens and cached user together.
	Clear(ctx context.Context) error
}
