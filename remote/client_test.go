package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, UserAgent: "sessionkit-test/1"}, server.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, baseURL := range []string{"", "not a url", "/relative/only"} {
		if _, err := NewClient(Config{BaseURL: baseURL}, nil); err == nil {
			t.Errorf("NewClient(%q) should fail", baseURL)
		}
	}
}

func TestLoginSuccess(t *testing.T) {
	var gotPath, gotDevice, gotRequestID string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDevice = r.Header.Get("X-Device-ID")
		gotRequestID = r.Header.Get("X-Request-ID")

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["email"] != "alice@example.com" || body["password"] != "secret" {
			t.Errorf("request body = %v", body)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]string{
				"id":          "user-1",
				"displayName": "Alice",
				"email":       "alice@example.com",
				"role":        "patient",
			},
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
		})
	}))

	ctx := WithDeviceID(context.Background(), "device-42")
	payload, err := client.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if gotPath != "/auth/signin" {
		t.Errorf("path = %q, want /auth/signin", gotPath)
	}
	if gotDevice != "device-42" {
		t.Errorf("X-Device-ID = %q, want device-42", gotDevice)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID missing")
	}
	if payload.User.ID != "user-1" || payload.AccessToken != "access-1" || payload.RefreshToken != "refresh-1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "invalid_credentials", "message": "nope"},
		})
	}))

	_, err := client.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginMFAChallenge(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":      "mfa_required",
				"message":   "second factor required",
				"mfaToken":  "challenge-7",
				"mfaMethod": "totp",
			},
		})
	}))

	_, err := client.Login(context.Background(), "alice@example.com", "secret")
	if !errors.Is(err, ErrMFARequired) {
		t.Fatalf("err = %v, want ErrMFARequired via errors.Is", err)
	}

	var challenge *MFAChallengeError
	if !errors.As(err, &challenge) {
		t.Fatalf("err = %T, want *MFAChallengeError via errors.As", err)
	}
	if challenge.Token != "challenge-7" || challenge.Method != "totp" {
		t.Fatalf("challenge = %+v", challenge)
	}
}

func TestMFALoginSendsChallenge(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/signin/mfa" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["mfaToken"] != "challenge-7" || body["code"] != "424242" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"accessToken": "access-1"})
	}))

	payload, err := client.MFALogin(context.Background(), "challenge-7", "424242")
	if err != nil {
		t.Fatalf("MFALogin: %v", err)
	}
	if payload.AccessToken != "access-1" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestLogoutSendsBearer(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if gotAuth != "Bearer access-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestValidationError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "validation_error", "message": "email malformed"},
		})
	}))

	_, err := client.Register(context.Background(), RegisterInput{Email: "bad"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestServerErrorWithoutEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.Refresh(context.Background(), "refresh-1")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestUnknownErrorCodeMapsByStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "maintenance", "message": "back soon"},
		})
	}))

	_, err := client.Login(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: baseURL}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Login(context.Background(), "alice@example.com", "secret")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestRequestVerificationPurpose(t *testing.T) {
	var gotBody map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.RequestVerification(context.Background(), "alice@example.com", "registration"); err != nil {
		t.Fatalf("RequestVerification: %v", err)
	}
	if gotBody["purpose"] != "registration" {
		t.Errorf("purpose = %q", gotBody["purpose"])
	}
}
