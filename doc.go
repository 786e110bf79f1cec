// Package goAccounts is a client SDK for the account backend REST API:
// registration, sign-in (CAPTCHA plus optional TOTP second factor), email
// verification, password reset, profile editing, and account deletion. The
// backend owns all business logic (password hashing, persistence, token
// issuance) so this package is deliberately thin: it validates input before
// it reaches the wire, issues requests through a session-aware transport, and
// hands structured results back to the caller.
//
// The package is safe for concurrent use: Client methods may be called from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAccounts is the public surface. It exposes [Client], [Builder], [Config],
// and value types (FetchResult, ValidationResult, SignInResult, etc.).
// Cross-cutting pieces live in subpackages: transport decorators under
// middleware/, metric exporters under metrics/export/, and the password
// policy plus hash comparison under password/.
//
// # What this package must NOT do
//
//   - Persist credentials or tokens on the client side. The cookie jar held
//     by the HTTP client is the only session carrier, and it lives and dies
//     with the process.
//   - Retry beyond the single refresh-and-retry cycle of
//     [Client.FetchWithRefresh]. One refresh, one retry, never recursion.
//   - Interpret backend payloads beyond the documented envelope. The wire
//     format is dictated entirely by the backend.
//
// # Session recovery contract
//
// FetchWithRefresh is the hot path for authenticated calls. A non-401
// response passes through untouched. On 401 the client issues exactly one
// refresh call; a failed refresh is followed by exactly one retry of the
// original request, whose envelope is returned as-is. A 2xx refresh response
// marks the session unrecoverable: the caller is navigated to the sign-in
// entry point and the call fails with [ErrNoActiveSession].
package goAccounts
