package goAccounts

import (
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionState is the explicitly owned "who is signed in" holder. The
// Client is its single writer; everything else reads snapshots. It replaces
// the ambient mutable auth context of the original front-end.
type SessionState struct {
	mu        sync.RWMutex
	user      *User
	expiresAt time.Time
}

func newSessionState() *SessionState {
	return &SessionState{}
}

// Current returns a copy of the signed-in user, and false when nobody is
// signed in.
func (s *SessionState) Current() (User, bool) {
	if s == nil {
		return User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// ExpiresAt returns the session expiry learned from the session cookie, and
// false when no expiry is known.
func (s *SessionState) ExpiresAt() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

func (s *SessionState) set(u *User) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		return
	}
	copied := *u
	// The stored hash has no business living in session state.
	copied.Password = ""
	s.user = &copied
}

func (s *SessionState) setExpiry(t time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = t
}

func (s *SessionState) setTOTPAuthOn(on int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.user.TOTPAuthOn = on
	}
}

func (s *SessionState) clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.expiresAt = time.Time{}
}

// SessionExpiry inspects the backend session cookie in the jar and, when it
// carries a JWT, returns the token's expiry claim. The token is parsed
// unverified; the client holds no signing key and only wants the timestamp
// for display and proactive refresh decisions, never for trust.
func (c *Client) SessionExpiry() (time.Time, error) {
	if c == nil || c.http == nil || c.http.Jar == nil {
		return time.Time{}, ErrClientNotReady
	}

	origin, err := url.Parse(c.config.HTTP.BaseURL)
	if err != nil {
		return time.Time{}, ErrInvalidBaseURL
	}

	for _, cookie := range c.http.Jar.Cookies(origin) {
		if cookie.Name != c.config.Session.CookieName {
			continue
		}
		claims := jwt.RegisteredClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(cookie.Value, &claims); err != nil {
			return time.Time{}, ErrSessionCookieMissing
		}
		if claims.ExpiresAt == nil {
			return time.Time{}, ErrSessionCookieMissing
		}
		c.session.setExpiry(claims.ExpiresAt.Time)
		return claims.ExpiresAt.Time, nil
	}

	return time.Time{}, ErrSessionCookieMissing
}
