package goAccounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSignInEstablishesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in SignInInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode input: %v", err)
		}
		if in.CaptchaToken != "solved" {
			t.Errorf("expected captcha token forwarded, got %q", in.CaptchaToken)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": User{ID: 9, Username: "alice", Email: "alice@example.com", Password: "$2a$10$hash"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.SignIn(context.Background(), SignInInput{
		Email:        "alice@example.com",
		Password:     "pw",
		CaptchaToken: "solved",
	})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if result.Outcome != SignInSucceeded {
		t.Fatalf("expected SignInSucceeded, got %v (%s)", result.Outcome, result.Message)
	}
	if result.User == nil || result.User.ID != 9 {
		t.Fatalf("expected user 9, got %+v", result.User)
	}

	current, ok := client.Session().Current()
	if !ok || current.Username != "alice" {
		t.Fatalf("expected session state for alice, got %+v ok=%v", current, ok)
	}
	if current.Password != "" {
		t.Fatal("expected password hash stripped from session state")
	}
}

func TestSignInPendingTwoFactor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"userId": 9, "message": "TOTP required"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.SignIn(context.Background(), SignInInput{Email: "a@b.co", Password: "pw", CaptchaToken: "ok"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if result.Outcome != SignInPendingTwoFactor {
		t.Fatalf("expected pending two-factor, got %v", result.Outcome)
	}
	if result.PendingUserID != 9 {
		t.Fatalf("expected pending user 9, got %d", result.PendingUserID)
	}
	if _, ok := client.Session().Current(); ok {
		t.Fatal("expected no session before the TOTP step")
	}
}

func TestSignInRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Wrong email or password"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.SignIn(context.Background(), SignInInput{Email: "a@b.co", Password: "bad", CaptchaToken: "ok"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if result.Outcome != SignInFailed {
		t.Fatalf("expected failure, got %v", result.Outcome)
	}
	if result.Message != "Wrong email or password" {
		t.Fatalf("expected backend message, got %q", result.Message)
	}
	if got := client.MetricsSnapshot().Counters[MetricSignInFailure]; got != 1 {
		t.Fatalf("expected 1 sign-in failure, got %d", got)
	}
}

func TestVerifyTOTPRejectsShortCodeLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("expected no network call for a short code")
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.VerifyTOTP(context.Background(), 9, "123")
	if err != nil {
		t.Fatalf("VerifyTOTP failed: %v", err)
	}
	if result.Outcome != SignInFailed || result.Message != "TOTP must be 6 digits" {
		t.Fatalf("expected local rejection, got %v %q", result.Outcome, result.Message)
	}
}

func TestVerifyTOTPForwardsLongCodeToBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["totpCode"] != "1234567" {
			t.Errorf("expected long code forwarded, got %v", in["totpCode"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid TOTP code"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.VerifyTOTP(context.Background(), 9, "1234567")
	if err != nil {
		t.Fatalf("VerifyTOTP failed: %v", err)
	}
	if result.Outcome != SignInFailed || result.Message != "Invalid TOTP code" {
		t.Fatalf("expected backend rejection, got %v %q", result.Outcome, result.Message)
	}
}

func TestVerifyTOTPCompletesSignIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["totpCode"] != "123456" {
			t.Errorf("expected code forwarded, got %v", in["totpCode"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": User{ID: 9, Username: "alice", TOTPAuthOn: 1},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.VerifyTOTP(context.Background(), 9, "123456")
	if err != nil {
		t.Fatalf("VerifyTOTP failed: %v", err)
	}
	if result.Outcome != SignInSucceeded {
		t.Fatalf("expected success, got %v (%s)", result.Outcome, result.Message)
	}
	if _, ok := client.Session().Current(); !ok {
		t.Fatal("expected session state populated")
	}
}

func TestSignOutClearsSessionEvenWhenBackendFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	client.session.set(&User{ID: 1, Username: "alice"})

	result, err := client.SignOut(context.Background())
	if err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if result.OK() {
		t.Fatal("expected backend failure envelope")
	}
	if _, ok := client.Session().Current(); ok {
		t.Fatal("expected session state cleared regardless of backend answer")
	}
}

func TestCheckSessionNotSignedIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v1/sessions/refresh-session" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "No session"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	_, err := client.CheckSession(context.Background())
	if !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}
