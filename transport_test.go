package goAccounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// callLog records every request path the stub backend sees, in order.
type callLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *callLog) add(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.paths))
	copy(out, l.paths)
	return out
}

func TestFetchDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Request-ID"); got == "" {
			t.Error("expected X-Request-ID header")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "All good"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.Fetch(context.Background(), FetchRequest{URL: server.URL + "/api/v1/ping"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !result.OK() {
		t.Fatalf("expected 2xx, got %d", result.Status)
	}
	if result.StatusText != "OK" {
		t.Fatalf("expected status text OK, got %q", result.StatusText)
	}
	if result.Message != "All good" {
		t.Fatalf("expected message from body, got %q", result.Message)
	}
	if got := client.MetricsSnapshot().Counters[MetricFetchSuccess]; got != 1 {
		t.Fatalf("expected 1 fetch success, got %d", got)
	}
}

func TestFetchTransportErrorYieldsSyntheticEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	client := newTestClient(t, server, nil)
	server.Close()

	result, err := client.Fetch(context.Background(), FetchRequest{URL: server.URL + "/api/v1/ping"})
	if err != nil {
		t.Fatalf("expected envelope, got error: %v", err)
	}
	if result.Status != http.StatusInternalServerError {
		t.Fatalf("expected synthetic 500, got %d", result.Status)
	}
	if result.StatusText != "Internal server error" {
		t.Fatalf("expected synthetic status text, got %q", result.StatusText)
	}
	if result.Data != nil {
		t.Fatal("expected nil data on transport error")
	}
	if got := client.MetricsSnapshot().Counters[MetricFetchTransportError]; got != 1 {
		t.Fatalf("expected 1 transport error, got %d", got)
	}
}

func TestFetchWithRefreshPassesNon401Through(t *testing.T) {
	log := &callLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Direct"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.FetchWithRefresh(context.Background(), FetchRequest{URL: server.URL + "/api/v1/users"})
	if err != nil {
		t.Fatalf("FetchWithRefresh failed: %v", err)
	}
	if result.Message != "Direct" {
		t.Fatalf("expected passthrough envelope, got %q", result.Message)
	}
	if calls := log.snapshot(); len(calls) != 1 {
		t.Fatalf("expected exactly 1 call, got %v", calls)
	}
}

func TestFetchWithRefreshRetriesOnceAfterFailedRefresh(t *testing.T) {
	log := &callLog{}
	var gets int32
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/sessions/refresh-session":
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Refresh failed"})
		default:
			mu.Lock()
			gets++
			first := gets == 1
			mu.Unlock()
			if first {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Expired"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Recovered"})
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	result, err := client.FetchWithRefresh(context.Background(), FetchRequest{URL: server.URL + "/api/v1/users"})
	if err != nil {
		t.Fatalf("FetchWithRefresh failed: %v", err)
	}
	if !result.OK() || result.Message != "Recovered" {
		t.Fatalf("expected recovered envelope, got %d %q", result.Status, result.Message)
	}

	calls := log.snapshot()
	want := []string{"/api/v1/users", "/api/v1/sessions/refresh-session", "/api/v1/users"}
	if len(calls) != len(want) {
		t.Fatalf("expected exactly 3 calls, got %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}

	snap := client.MetricsSnapshot()
	if snap.Counters[MetricUnauthorized] != 1 {
		t.Fatalf("expected 1 unauthorized, got %d", snap.Counters[MetricUnauthorized])
	}
	if snap.Counters[MetricRetryIssued] != 1 || snap.Counters[MetricRetryRecovered] != 1 {
		t.Fatalf("expected retry issued and recovered once, got %d/%d",
			snap.Counters[MetricRetryIssued], snap.Counters[MetricRetryRecovered])
	}
}

func TestFetchWithRefreshUnrecoverableSessionForcesSignIn(t *testing.T) {
	log := &callLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/sessions/refresh-session":
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Refreshed"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Expired"})
		}
	}))
	defer server.Close()

	nav := &recordNavigator{}
	client := newTestClient(t, server, nav)
	client.session.set(&User{ID: 1, Username: "alice"})

	_, err := client.FetchWithRefresh(context.Background(), FetchRequest{URL: server.URL + "/api/v1/users"})
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if nav.Calls() != 1 {
		t.Fatalf("expected 1 navigation to sign-in, got %d", nav.Calls())
	}
	if got := nav.LastPath(); got != "/sign-in" {
		t.Fatalf("expected default sign-in path, got %q", got)
	}
	if _, ok := client.Session().Current(); ok {
		t.Fatal("expected session state cleared")
	}
	if calls := log.snapshot(); len(calls) != 2 {
		t.Fatalf("expected no retry after a confirmed refresh, got %v", calls)
	}
	if got := client.MetricsSnapshot().Counters[MetricForcedSignOut]; got != 1 {
		t.Fatalf("expected 1 forced sign-out, got %d", got)
	}
}

func TestForcedSignOutUsesConfiguredSignInPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/sessions/refresh-session":
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Refreshed"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Expired"})
		}
	}))
	defer server.Close()

	cfg := defaultConfig()
	cfg.HTTP.BaseURL = server.URL
	cfg.Session.SignInPath = "/auth/sign-in"

	nav := &recordNavigator{}
	client, err := New().WithConfig(cfg).WithNavigator(nav).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()

	_, err = client.FetchWithRefresh(context.Background(), FetchRequest{URL: server.URL + "/api/v1/users"})
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if got := nav.LastPath(); got != "/auth/sign-in" {
		t.Fatalf("expected configured sign-in path, got %q", got)
	}
}

func TestFetchOmitCredentialsSkipsCookieJar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			t.Errorf("expected no session cookie, got %q", c.Value)
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "should-not-stick", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	// Two omitted requests: the second proves the first's set-cookie was
	// never stored.
	for i := 0; i < 2; i++ {
		if _, err := client.Fetch(context.Background(), FetchRequest{
			URL:         server.URL + "/api/v1/verifications/resend-verification-email",
			Method:      http.MethodPost,
			Credentials: CredentialsOmit,
			Body:        map[string]string{"email": "a@b.co"},
		}); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
	}
}
