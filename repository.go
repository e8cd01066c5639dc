package sessionkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitaltrace/sessionkit/credstore"
	"github.com/vitaltrace/sessionkit/jwtx"
	"github.com/vitaltrace/sessionkit/mailer"
	"github.com/vitaltrace/sessionkit/remote"
	"github.com/vitaltrace/sessionkit/verification"
)

// SessionRepository orchestrates the client's session lifecycle over
// the remote auth client, the credential store, the verification-code
// store, and the reset mailer.
//
// It is a state machine over LoggedOut → AwaitingMFA → LoggedIn. One
// UI-driven call at a time is assumed; the internal mutex only guards
// the state fields, it does not serialize remote calls.
type SessionRepository struct {
	config      Config
	remote      remote.AuthClient
	credentials credstore.Store
	codes       verification.Store
	sender      mailer.Sender
	logger      *zap.Logger
	metrics     *Metrics

	mu           sync.Mutex
	state        SessionState
	mfaChallenge string
}

// State returns the current lifecycle state.
func (r *SessionRepository) State() SessionState {
	if r == nil {
		return StateLoggedOut
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PendingMFAChallenge returns the challenge token retained after a
// login that demanded a second factor, or "" when none is pending.
func (r *SessionRepository) PendingMFAChallenge() string {
	if r == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mfaChallenge
}

// MetricsSnapshot returns a copy of the in-process counters.
func (r *SessionRepository) MetricsSnapshot() map[MetricID]uint64 {
	if r == nil {
		return map[MetricID]uint64{}
	}
	return r.metrics.Snapshot()
}

// Login authenticates with email and password.
//
// On success the session is persisted (token first, then the cached
// profile) and the state becomes LoggedIn. When the backend demands a
// second factor, Login retains the challenge, moves to AwaitingMFA, and
// returns ErrMFARequired — never a generic failure. On any other error
// the state is unchanged.
func (r *SessionRepository) Login(ctx context.Context, email, password string) (*Session, error) {
	if r == nil || r.remote == nil || r.credentials == nil {
		return nil, ErrRepositoryNotReady
	}

	payload, err := r.remote.Login(ctx, email, password)
	if err != nil {
		var challenge *remote.MFAChallengeError
		if errors.As(err, &challenge) {
			r.mu.Lock()
			r.state = StateAwaitingMFA
			r.mfaChallenge = challenge.Token
			r.mu.Unlock()
			r.metrics.Inc(MetricMFARequired)
			return nil, ErrMFARequired
		}
		r.metrics.Inc(MetricLoginFailure)
		return nil, mapRemoteError(err)
	}

	session, err := r.establishSession(ctx, payload, nil, "")
	if err != nil {
		r.metrics.Inc(MetricLoginFailure)
		return nil, err
	}
	r.metrics.Inc(MetricLoginSuccess)
	return session, nil
}

// ConfirmLoginMFA completes a pending challenge with the user's code.
// On failure the state stays AwaitingMFA so the user can retry.
func (r *SessionRepository) ConfirmLoginMFA(ctx context.Context, code string) (*Session, error) {
	if r == nil || r.remote == nil || r.credentials == nil {
		return nil, ErrRepositoryNotReady
	}

	r.mu.Lock()
	challenge := r.mfaChallenge
	pending := r.state == StateAwaitingMFA && challenge != ""
	r.mu.Unlock()
	if !pending {
		return nil, ErrNoPendingMFA
	}

	payload, err := r.remote.MFALogin(ctx, challenge, code)
	if err != nil {
		r.metrics.Inc(MetricMFAFailure)
		return nil, mapRemoteError(err)
	}

	session, err := r.establishSession(ctx, payload, nil, "")
	if err != nil {
		r.metrics.Inc(MetricMFAFailure)
		return nil, err
	}
	r.metrics.Inc(MetricMFASuccess)
	return session, nil
}

// Register creates an account and enters LoggedIn directly, following
// the same token-then-profile persistence rule as Login.
func (r *SessionRepository) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if r == nil || r.remote == nil || r.credentials == nil {
		return nil, ErrRepositoryNotReady
	}

	payload, err := r.remote.Register(ctx, remote.RegisterInput{
		Name:             input.Name,
		Email:            input.Email,
		Password:         input.Password,
		Role:             input.Role,
		VerificationCode: input.VerificationCode,
	})
	if err != nil {
		r.metrics.Inc(MetricRegisterFailure)
		return nil, mapRemoteError(err)
	}

	session, err := r.establishSession(ctx, payload, nil, "")
	if err != nil {
		r.metrics.Inc(MetricRegisterFailure)
		return nil, err
	}
	r.metrics.Inc(MetricRegisterSuccess)
	return session, nil
}

// Logout always attempts the remote call, then clears the local token
// and cached profile unconditionally and enters LoggedOut. Remote and
// local-clear failures are logged, never surfaced: the client must not
// stay in a logged-in state because the network is down.
func (r *SessionRepository) Logout(ctx context.Context) error {
	if r == nil || r.credentials == nil {
		return ErrRepositoryNotReady
	}

	accessToken := ""
	if record, err := r.credentials.LastRecord(ctx); err == nil && record != nil {
		accessToken = record.AccessToken
	}

	if r.remote != nil {
		if err := r.remote.Logout(ctx, accessToken); err != nil {
			r.metrics.Inc(MetricLogoutRemoteFailure)
			r.logger.Warn("remote logout failed, clearing local session anyway", zap.Error(err))
		}
	}

	if err := r.credentials.Clear(ctx); err != nil {
		r.logger.Warn("credential store clear failed", zap.Error(err))
	}

	r.mu.Lock()
	r.state = StateLoggedOut
	r.mfaChallenge = ""
	r.mu.Unlock()

	r.metrics.Inc(MetricLogout)
	return nil
}

// RefreshSession exchanges the stored refresh token for a new token
// pair. Failure surfaces to the caller — the session is presumed
// expired and the caller is responsible for forcing a re-login.
func (r *SessionRepository) RefreshSession(ctx context.Context) (*Session, error) {
	if r == nil || r.remote == nil || r.credentials == nil {
		return nil, ErrRepositoryNotReady
	}

	record, err := r.credentials.LastRecord(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential store: %w", err)
	}
	if record == nil || record.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}

	payload, err := r.remote.Refresh(ctx, record.RefreshToken)
	if err != nil {
		r.metrics.Inc(MetricRefreshFailure)
		if errors.Is(err, remote.ErrInvalidCredentials) || errors.Is(err, remote.ErrValidation) {
			return nil, &authError{kind: ErrSessionExpired, cause: err}
		}
		return nil, mapRemoteError(err)
	}

	fallback := profileFromCached(record.User)
	session, err := r.establishSession(ctx, payload, &fallback, record.RefreshToken)
	if err != nil {
		r.metrics.Inc(MetricRefreshFailure)
		return nil, err
	}
	r.metrics.Inc(MetricRefreshSuccess)
	return session, nil
}

// CurrentUser returns the cached profile, or nil when none is stored.
// Store read failures are treated as "no user" — this is an advisory
// check, never an error source.
func (r *SessionRepository) CurrentUser(ctx context.Context) *UserProfile {
	if r == nil || r.credentials == nil {
		return nil
	}

	record, err := r.credentials.LastRecord(ctx)
	if err != nil || record == nil || record.User.UserID == "" {
		return nil
	}
	profile := profileFromCached(record.User)
	return &profile
}

// IsLoggedIn reports whether a token and cached profile are stored.
// Like CurrentUser it is optimistic: the backend may have invalidated
// the session without the client knowing.
func (r *SessionRepository) IsLoggedIn(ctx context.Context) bool {
	if r == nil || r.credentials == nil {
		return false
	}

	record, err := r.credentials.LastRecord(ctx)
	if err != nil || record == nil {
		return false
	}
	return record.AccessToken != "" && record.User.UserID != ""
}

// RequestVerification asks the backend to email a verification code to
// the address for the given flow.
func (r *SessionRepository) RequestVerification(ctx context.Context, email string, kind verification.Kind) error {
	if r == nil || r.remote == nil {
		return ErrRepositoryNotReady
	}
	if err := r.remote.RequestVerification(ctx, email, kind.String()); err != nil {
		return mapRemoteError(err)
	}
	return nil
}

// establishSession persists the payload (token before profile) and
// moves to LoggedIn. A half-persisted session is rolled back so a
// stored token always implies a cached user.
func (r *SessionRepository) establishSession(
	ctx context.Context,
	payload *remote.AuthPayload,
	fallbackUser *UserProfile,
	fallbackRefresh string,
) (*Session, error) {
	profile := profileFromPayload(payload.User)
	if profile.UserID == "" && fallbackUser != nil {
		profile = *fallbackUser
	}

	refreshToken := payload.RefreshToken
	if refreshToken == "" {
		refreshToken = fallbackRefresh
	}

	expiresAt := time.Now().Add(r.config.Tokens.AccessTTL)
	if payload.AccessToken != "" {
		if exp, ok := jwtx.Expiry(payload.AccessToken); ok {
			expiresAt = exp
		}
	}

	if payload.AccessToken != "" {
		if err := r.credentials.SaveToken(ctx, payload.AccessToken, refreshToken, expiresAt); err != nil {
			return nil, fmt.Errorf("persist token: %w", err)
		}
	}
	if err := r.credentials.CacheUser(ctx, cachedFromProfile(profile)); err != nil {
		// Roll back so a stored token never lacks a cached user.
		if cerr := r.credentials.Clear(ctx); cerr != nil {
			r.logger.Warn("rollback after cache failure failed", zap.Error(cerr))
		}
		return nil, fmt.Errorf("cache user: %w", err)
	}

	r.mu.Lock()
	r.state = StateLoggedIn
	r.mfaChallenge = ""
	r.mu.Unlock()

	return &Session{
		User:         profile,
		AccessToken:  payload.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func mapRemoteError(err error) error {
	if err == nil {
		return nil
	}

	kind := ErrServer
	switch {
	case errors.Is(err, remote.ErrMFARequired):
		kind = ErrMFARequired
	case errors.Is(err, remote.ErrNetwork):
		kind = ErrNetwork
	case errors.Is(err, remote.ErrInvalidCredentials):
		kind = ErrInvalidCredentials
	case errors.Is(err, remote.ErrValidation):
		kind = ErrValidation
	}
	return &authError{kind: kind, cause: err}
}
