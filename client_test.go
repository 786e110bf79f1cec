package goAccounts

import (
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type recordNavigator struct {
	calls    atomic.Int64
	lastPath atomic.Value
}

func (n *recordNavigator) NavigateToSignIn(path string) {
	n.calls.Add(1)
	n.lastPath.Store(path)
}

func (n *recordNavigator) Calls() int64 {
	return n.calls.Load()
}

func (n *recordNavigator) LastPath() string {
	path, _ := n.lastPath.Load().(string)
	return path
}

func newTestClient(t *testing.T, server *httptest.Server, nav Navigator) *Client {
	t.Helper()

	builder := New().
		WithBaseURL(server.URL).
		WithMetricsEnabled(true)
	if nav != nil {
		builder = builder.WithNavigator(nav)
	}

	client, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}
