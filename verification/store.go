// Package verification stores short-lived verification codes for
// registration and password-reset flows.
//
// A store holds at most one live code per (email, kind) pair: saving a
// new code supersedes the previous one. Verifying consumes the code on
// success only. Expired codes keep reporting StatusExpired for a
// bounded retention window so callers can tell "expired" apart from
// "never requested".
package verification

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"time"
)

// Kind distinguishes the flows a code can belong to. A code saved for
// one kind never verifies under another.
type Kind uint8

const (
	// KindRegistration marks codes issued for email-verified signup.
	KindRegistration Kind = iota + 1
	// KindPasswordReset marks codes issued for the password-reset flow.
	KindPasswordReset
)

func (k Kind) String() string {
	switch k {
	case KindRegistration:
		return "registration"
	case KindPasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

// Status is the outcome of a Verify call.
type Status uint8

const (
	// StatusSuccess means the code matched and has been consumed.
	StatusSuccess Status = iota
	// StatusExpired means a code exists but its lifetime has passed.
	StatusExpired
	// StatusMismatch means a live code exists but the provided code differs.
	StatusMismatch
	// StatusNotFound means no code was ever requested, or the record aged out.
	StatusNotFound
)

// Result carries the Verify outcome. Remaining is set only on
// StatusSuccess and reports how much lifetime the consumed code had
// left, so a caller may re-arm the same code for a follow-up check.
type Result struct {
	Status    Status
	Remaining time.Duration
}

// ErrBackendUnavailable indicates the underlying store could not be
// reached; it is distinct from any per-code outcome.
var ErrBackendUnavailable = errors.New("verification backend unavailable")

// Store is the verification-code capability. Implementations must keep
// Save/Verify atomic per (email, kind) key.
type Store interface {
	// Save replaces any existing code for (email, kind) and starts a
	// fresh lifetime of ttl.
	Save(ctx context.Context, email string, codeHash [32]byte, kind Kind, ttl time.Duration) error
	// Verify compares codeHash against the stored code for
	// (email, kind), consuming it on success. The error return is
	// reserved for backend failures; per-code outcomes live in Result.
	Verify(ctx context.Context, email string, codeHash [32]byte, kind Kind) (Result, error)
}

// HashCode reduces a plaintext code to the SHA-256 digest stored and
// compared by every Store implementation. Plaintext codes are never
// persisted.
func HashCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// retentionFor is the total time a record is kept: the live ttl plus an
// equal tombstone window during which Verify reports StatusExpired
// instead of StatusNotFound.
func retentionFor(ttl time.Duration) time.Duration {
	return 2 * ttl
}
