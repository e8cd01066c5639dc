package sessionkit

import "errors"

var (
	// ErrNetwork means the auth backend could not be reached.
	ErrNetwork = errors.New("auth backend unreachable")
	// ErrInvalidCredentials means the backend rejected the credentials,
	// token, or code.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMFARequired means the first login factor succeeded and the
	// backend demands a second one. It must reach the UI unmodified so
	// the caller can branch into the MFA challenge flow.
	ErrMFARequired = errors.New("mfa required")
	// ErrValidation means the backend rejected the request fields.
	ErrValidation = errors.New("request validation rejected")
	// ErrServer means the backend failed internally.
	ErrServer = errors.New("auth backend error")
	// ErrCodeExpired means a verification code exists but its lifetime
	// has passed; the user should request a new one.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch means the supplied verification code is wrong.
	ErrCodeMismatch = errors.New("verification code incorrect")
	// ErrCodeNotFound means no verification code was ever requested for
	// that address, or it has long since aged out.
	ErrCodeNotFound = errors.New("verification code not requested")
	// ErrVerificationUnavailable means the verification-code store or
	// the email collaborator failed.
	ErrVerificationUnavailable = errors.New("verification unavailable")
	// ErrNoPendingMFA is returned by ConfirmLoginMFA when no login has
	// produced a challenge.
	ErrNoPendingMFA = errors.New("no pending mfa challenge")
	// ErrNotLoggedIn is returned by RefreshSession when no refresh
	// token is stored.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired wraps a refresh rejection; the caller must
	// force a fresh login.
	ErrSessionExpired = errors.New("session expired")
	// ErrRepositoryNotReady indicates a partially constructed
	// repository; use the Builder.
	ErrRepositoryNotReady = errors.New("session repository not initialized")
)

// authError pairs one of the package sentinels with the underlying
// cause so errors.Is matches the sentinel while the message keeps the
// original detail.
type authError struct {
	kind  error
	cause error
}

func (e *authError) Error() string { return e.cause.Error() }

func (e *authError) Unwrap() []error { return []error{e.kind, e.cause} }
