// Package remote is the HTTP client for the auth backend. Every method
// maps to exactly one backend request and either returns a parsed
// payload or fails with one of the package's sentinel errors.
package remote

import "errors"

var (
	// ErrNetwork means the backend could not be reached or the request
	// was cancelled in transit.
	ErrNetwork = errors.New("auth backend unreachable")
	// ErrInvalidCredentials means the backend rejected the supplied
	// credentials, code, or token.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMFARequired means the first login factor succeeded and the
	// backend demands an MFA code. It is never folded into a generic
	// failure; use errors.As with *MFAChallengeError for the challenge.
	ErrMFARequired = errors.New("mfa required")
	// ErrValidation means the backend rejected the request shape or
	// field values.
	ErrValidation = errors.New("request validation rejected")
	// ErrServer means the backend failed internally or answered with an
	// unrecognized error.
	ErrServer = errors.New("auth backend error")
)

// MFAChallengeError carries the temporary challenge token the backend
// issues when a second factor is required. It unwraps to ErrMFARequired
// so both errors.Is and errors.As work on it.
type MFAChallengeError struct {
	Token  string
	Method string
}

func (e *MFAChallengeError) Error() string { return "mfa required" }

func (e *MFAChallengeError) Unwrap() error { return ErrMFARequired }

// AuthPayload is the parsed success response of the session-producing
// endpoints. RefreshToken may be empty when the backend does not rotate
// it; User may be zero on refresh responses.
type AuthPayload struct {
	User         UserPayload
	AccessToken  string
	RefreshToken string
}

// UserPayload is the backend's user representation.
type UserPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// RegisterInput is the signup request. VerificationCode is optional and
// only set for email-verified signup.
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	Role             string
	VerificationCode string
}
