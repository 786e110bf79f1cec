package goAccounts

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestBuildRequiresBaseURL(t *testing.T) {
	_, err := New().Build()
	if !errors.Is(err, ErrMissingBaseURL) {
		t.Fatalf("expected ErrMissingBaseURL, got %v", err)
	}
}

func TestBuildRejectsMalformedBaseURL(t *testing.T) {
	cases := []string{
		"backend.test",
		"ftp://backend.test",
		"http://",
		"::bad::",
	}
	for _, baseURL := range cases {
		if _, err := New().WithBaseURL(baseURL).Build(); !errors.Is(err, ErrInvalidBaseURL) {
			t.Fatalf("base URL %q: expected ErrInvalidBaseURL, got %v", baseURL, err)
		}
	}
}

func TestBuildRejectsNegativeTimeout(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTP.BaseURL = "http://backend.test"
	cfg.HTTP.Timeout = -time.Second

	_, err := New().WithConfig(cfg).Build()
	if !errors.Is(err, ErrInvalidTimeout) {
		t.Fatalf("expected ErrInvalidTimeout, got %v", err)
	}
}

func TestBuildIsSingleUse(t *testing.T) {
	builder := New().WithBaseURL("http://backend.test")

	client, err := builder.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer client.Close()

	if _, err := builder.Build(); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestNormalizeTrimsTrailingSlash(t *testing.T) {
	client, err := New().WithBaseURL("http://backend.test/").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()

	if got := client.BaseURL(); got != "http://backend.test" {
		t.Fatalf("expected trimmed base URL, got %q", got)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{}
	cfg.HTTP.BaseURL = "http://backend.test"
	normalizeConfig(&cfg)

	if cfg.HTTP.MaxResponseBytes != 1<<20 {
		t.Fatalf("expected default response cap, got %d", cfg.HTTP.MaxResponseBytes)
	}
	if cfg.Session.CookieName != "session" {
		t.Fatalf("expected default cookie name, got %q", cfg.Session.CookieName)
	}
	if cfg.Session.RefreshPath != "/api/v1/sessions/refresh-session" {
		t.Fatalf("expected default refresh path, got %q", cfg.Session.RefreshPath)
	}
	if cfg.Audit.BufferSize != 256 {
		t.Fatalf("expected default audit buffer, got %d", cfg.Audit.BufferSize)
	}
}

func TestBuildCreatesCookieJarWhenAbsent(t *testing.T) {
	client, err := New().
		WithBaseURL("http://backend.test").
		WithHTTPClient(&http.Client{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()

	if client.http.Jar == nil {
		t.Fatal("expected a cookie jar to be created")
	}
}

func TestBuildLeavesSuppliedHTTPClientUntouched(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTP.BaseURL = "http://backend.test"
	cfg.HTTP.Timeout = 5 * time.Second

	supplied := &http.Client{}
	client, err := New().
		WithConfig(cfg).
		WithHTTPClient(supplied).
		WithTransport(func(next http.RoundTripper) http.RoundTripper { return next }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()

	if supplied.Jar != nil || supplied.Transport != nil || supplied.Timeout != 0 {
		t.Fatalf("supplied client was mutated: jar=%v transport=%v timeout=%v",
			supplied.Jar, supplied.Transport, supplied.Timeout)
	}
	if client.http == supplied {
		t.Fatal("expected Build to decorate a copy")
	}
	if client.http.Jar == nil || client.http.Timeout == 0 {
		t.Fatal("expected the copy to carry jar and timeout")
	}
}
