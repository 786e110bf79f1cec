package goAccounts

import (
	"net/url"
	"strings"
	"time"
)

// Config is the full client configuration. Configure once before
// [Builder.Build]; the built [Client] treats it as immutable.
type Config struct {
	HTTP       HTTPConfig
	Session    SessionConfig
	Validation ValidationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig controls the outbound transport.
type HTTPConfig struct {
	// BaseURL is the backend origin, e.g. "https://api.example.com".
	// Required.
	BaseURL string
	// Timeout bounds one round trip. Zero means no timeout, matching the
	// caller-suspends-until-response model of the original client.
	Timeout time.Duration
	// UserAgent is sent on every request when non-empty.
	UserAgent string
	// MaxResponseBytes caps how much of a response body is read when
	// decoding the envelope. Defaults to 1 MiB.
	MaxResponseBytes int64
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session recovery and introspection.
type SessionConfig struct {
	// CookieName is the backend session cookie inspected for a JWT expiry
	// claim. Default "session".
	CookieName string
	// RefreshPath is the session-refresh endpoint used only by
	// FetchWithRefresh. Default "/api/v1/sessions/refresh-session".
	RefreshPath string
	// SignInPath is passed to [Navigator.NavigateToSignIn] on the
	// unrecoverable-session branch. Default "/sign-in".
	SignInPath string
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// ValidationConfig controls the input validator.
type ValidationConfig struct {
	// DisableDuplicateCheck skips the uniqueness queries globally. Per-call
	// skipping is available through [ValidateOptions].
	DisableDuplicateCheck bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full.
	// Dropped events are counted and reported by [Client.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			MaxResponseBytes: 1 << 20,
		},
		Session: SessionConfig{
			CookieName:  "session",
			RefreshPath: "/api/v1/sessions/refresh-session",
			SignInPath:  "/sign-in",
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

func normalizeConfig(cfg *Config) {
	if cfg.HTTP.MaxResponseBytes <= 0 {
		cfg.HTTP.MaxResponseBytes = 1 << 20
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "session"
	}
	if cfg.Session.RefreshPath == "" {
		cfg.Session.RefreshPath = "/api/v1/sessions/refresh-session"
	}
	if cfg.Session.SignInPath == "" {
		cfg.Session.SignInPath = "/sign-in"
	}
	if cfg.Audit.BufferSize <= 0 {
		cfg.Audit.BufferSize = 256
	}
	cfg.HTTP.BaseURL = strings.TrimRight(cfg.HTTP.BaseURL, "/")
}

func validateConfig(cfg Config) error {
	if cfg.HTTP.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(cfg.HTTP.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if cfg.HTTP.Timeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}
