// Package middleware provides http.RoundTripper decorators for the
// goAccounts client transport: request-ID stamping, static headers, and
// round-trip logging. Decorators are wired through
// [goAccounts.Builder.WithTransport] and apply to every outbound request,
// including the refresh and retry legs of FetchWithRefresh.
package middleware
