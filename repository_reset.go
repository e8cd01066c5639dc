package sessionkit

import (
	"context"
	"fmt"
	"time"

	"github.com/vitaltrace/sessionkit/mailer"
	"github.com/vitaltrace/sessionkit/verification"
)

// RequestPasswordReset generates a reset code, stores its hash, and
// mails it to the address. The call fails when either the store or the
// mailer does — a code the user never receives is worthless.
func (r *SessionRepository) RequestPasswordReset(ctx context.Context, email string) error {
	if r == nil || r.codes == nil || r.sender == nil {
		return ErrRepositoryNotReady
	}

	code, err := mailer.GenerateVerificationCode(r.config.Verification.CodeDigits)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	ttl := r.config.Verification.CodeTTL
	if err := r.codes.Save(ctx, email, verification.HashCode(code), verification.KindPasswordReset, ttl); err != nil {
		return &authError{kind: ErrVerificationUnavailable, cause: err}
	}
	if err := r.sender.SendPasswordResetEmail(ctx, email, code); err != nil {
		return &authError{kind: ErrVerificationUnavailable, cause: err}
	}

	r.metrics.Inc(MetricResetRequest)
	return nil
}

// VerifyResetCode checks the code the user typed without spending it:
// on success the code is re-stored under its remaining lifetime so the
// final ResetPassword call can check it once more. This keeps the
// verify screen and the actual reset as two independent gates.
func (r *SessionRepository) VerifyResetCode(ctx context.Context, email, code string) error {
	if r == nil || r.codes == nil {
		return ErrRepositoryNotReady
	}

	hash := verification.HashCode(code)
	result, err := r.codes.Verify(ctx, email, hash, verification.KindPasswordReset)
	if err != nil {
		return &authError{kind: ErrVerificationUnavailable, cause: err}
	}
	if result.Status != verification.StatusSuccess {
		r.metrics.Inc(MetricResetVerifyFailure)
		return codeStatusError(result.Status)
	}

	// Verify consumed the code; put it back for the confirm step. A
	// code verified in its final second still gets a usable window.
	remaining := result.Remaining
	if remaining < time.Second {
		remaining = time.Second
	}
	if err := r.codes.Save(ctx, email, hash, verification.KindPasswordReset, remaining); err != nil {
		return &authError{kind: ErrVerificationUnavailable, cause: err}
	}
	r.metrics.Inc(MetricResetVerifySuccess)
	return nil
}

// ResetPassword re-verifies the code — consuming it this time — and
// only then tells the backend to change the password. The remote call
// happens at most once per stored code.
func (r *SessionRepository) ResetPassword(ctx context.Context, email, newPassword, code string) error {
	if r == nil || r.remote == nil || r.codes == nil {
		return ErrRepositoryNotReady
	}

	hash := verification.HashCode(code)
	result, err := r.codes.Verify(ctx, email, hash, verification.KindPasswordReset)
	if err != nil {
		return &authError{kind: ErrVerificationUnavailable, cause: err}
	}
	if result.Status != verification.StatusSuccess {
		r.metrics.Inc(MetricResetConfirmFailure)
		return codeStatusError(result.Status)
	}

	if err := r.remote.ResetPassword(ctx, email, newPassword, code); err != nil {
		r.metrics.Inc(MetricResetConfirmFailure)
		return mapRemoteError(err)
	}
	r.metrics.Inc(MetricResetConfirmSuccess)
	return nil
}

func codeStatusError(status verification.Status) error {
	switch status {
	case verification.StatusExpired:
		return ErrCodeExpired
	case verification.StatusMismatch:
		return ErrCodeMismatch
	default:
		return ErrCodeNotFound
	}
}
