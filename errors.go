package goAccounts

import "errors"

var (
	// ErrClientNotReady is returned when a Client method is invoked on a nil
	// or unbuilt client.
	ErrClientNotReady = errors.New("client not ready")
	// ErrMissingBaseURL is returned by [Builder.Build] when no backend base
	// URL was configured.
	ErrMissingBaseURL = errors.New("missing backend base url")
	// ErrInvalidBaseURL is returned by [Builder.Build] when the configured
	// base URL does not parse as an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid backend base url")
	// ErrInvalidTimeout is returned by [Builder.Build] when a negative
	// timeout was configured.
	ErrInvalidTimeout = errors.New("invalid http timeout")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNoActiveSession is returned by [Client.FetchWithRefresh] on the
	// unrecoverable-session branch, after navigating to sign-in.
	ErrNoActiveSession = errors.New("no active session")
	// ErrNotSignedIn is returned by operations that need a current user in
	// the session state before any sign-in completed.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrMissingToken is returned by token-link flows (email verification,
	// password reset, account deletion) when the token is empty.
	ErrMissingToken = errors.New("missing token")
	// ErrMissingRecord is returned by edit-mode validation when no existing
	// record matches the identifier being edited.
	ErrMissingRecord = errors.New("record to edit not found")
	// ErrUserDirectoryUnavailable wraps failures of the duplicate-check
	// listing call inside validation.
	ErrUserDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrSessionCookieMissing is returned by session introspection when the
	// jar holds no session cookie for the backend origin.
	ErrSessionCookieMissing = errors.New("session cookie missing")
)
