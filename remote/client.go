package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the connection settings for the auth backend.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// AuthClient is the capability exposed to the session repository.
// *Client is the HTTP implementation; tests substitute fakes.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*AuthPayload, error)
	MFALogin(ctx context.Context, challenge, code string) (*AuthPayload, error)
	Register(ctx context.Context, input RegisterInput) (*AuthPayload, error)
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*AuthPayload, error)
	RequestVerification(ctx context.Context, email, purpose string) error
	ResetPassword(ctx context.Context, email, newPassword, code string) error
}

// Client talks JSON over HTTPS to the auth backend.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a Client. When httpClient is nil a dedicated client
// with cfg.Timeout is used; a caller-supplied client keeps its own
// timeout settings.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:   strings.TrimRight(base.String(), "/"),
		userAgent: cfg.UserAgent,
		http:      httpClient,
	}, nil
}

type authEnvelope struct {
	User         UserPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type errorEnvelope struct {
	Error struct {
		Code     string `json:"code"`
		Message  string `json:"message"`
		MFAToken string `json:"mfaToken"`
		Method   string `json:"mfaMethod"`
	} `json:"error"`
}

// Login exchanges credentials for a session payload. A backend demand
// for a second factor surfaces as *MFAChallengeError.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	body := map[string]string{"email": email, "password": password}
	return c.session(ctx, "/auth/signin", body)
}

// MFALogin completes a pending challenge with the user's code.
func (c *Client) MFALogin(ctx context.Context, challenge, code string) (*AuthPayload, error) {
	body := map[string]string{"mfaToken": challenge, "code": code}
	return c.session(ctx, "/auth/signin/mfa", body)
}

// Register creates an account and, on success, returns the initial
// session payload.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*AuthPayload, error) {
	body := map[string]string{
		"name":     input.Name,
		"email":    input.Email,
		"password": input.Password,
		"role":     input.Role,
	}
	if input.VerificationCode != "" {
		body["verificationCode"] = input.VerificationCode
	}
	return c.session(ctx, "/auth/signup", body)
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, "/auth/logout", nil, nil, accessToken)
}

// Refresh rotates the token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthPayload, error) {
	body := map[string]string{"refreshToken": refreshToken}
	return c.session(ctx, "/auth/refresh", body)
}

// RequestVerification asks the backend to email a verification code for
// the given purpose ("registration" or "password_reset").
func (c *Client) RequestVerification(ctx context.Context, email, purpose string) error {
	body := map[string]string{"email": email, "purpose": purpose}
	return c.do(ctx, "/auth/verification/request", body, nil, "")
}

// ResetPassword submits the new password together with the emailed
// code.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword, code string) error {
	body := map[string]string{"email": email, "newPassword": newPassword, "code": code}
	return c.do(ctx, "/auth/password/reset", body, nil, "")
}

func (c *Client) session(ctx context.Context, path string, body any) (*AuthPayload, error) {
	var envelope authEnvelope
	if err := c.do(ctx, path, body, &envelope, ""); err != nil {
		return nil, err
	}
	return &AuthPayload{
		User:         envelope.User,
		AccessToken:  envelope.AccessToken,
		RefreshToken: envelope.RefreshToken,
	}, nil
}

func (c *Client) do(ctx context.Context, path string, body, out any, bearer string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if deviceID := deviceIDFromContext(ctx); deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}
	if version := appVersionFromContext(ctx); version != "" {
		req.Header.Set("X-App-Version", version)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: malformed response: %v", ErrServer, err)
		}
		return nil
	}

	return c.decodeError(resp.StatusCode, raw)
}

func (c *Client) decodeError(status int, raw []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		if status >= 500 {
			return fmt.Errorf("%w: status %d", ErrServer, status)
		}
		return fmt.Errorf("%w: status %d", ErrValidation, status)
	}

	switch envelope.Error.Code {
	case "mfa_required":
		return &MFAChallengeError{
			Token:  envelope.Error.MFAToken,
			Method: envelope.Error.Method,
		}
	case "invalid_credentials", "invalid_token", "invalid_code":
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, envelope.Error.Message)
	case "validation_error":
		return fmt.Errorf("%w: %s", ErrValidation, envelope.Error.Message)
	default:
		if status >= 500 {
			return fmt.Errorf("%w: %s: %s", ErrServer, envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("%w: %s: %s", ErrValidation, envelope.Error.Code, envelope.Error.Message)
	}
}
