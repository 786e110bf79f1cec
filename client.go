package goAccounts

import (
	"context"
	"net/http"
)

// Client is the account-backend API client. Build one through [Builder];
// its methods are safe for concurrent use.
type Client struct {
	config    Config
	http      *http.Client
	bare      *http.Client
	navigator Navigator
	session   *SessionState
	metrics   *Metrics
	audit     *auditDispatcher
}

// Close flushes and stops the audit dispatcher. The Client must not be used
// after Close.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// BaseURL returns the configured backend origin without a trailing slash.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.config.HTTP.BaseURL
}

// Session exposes the owned session state. The Client is its single writer;
// callers get read-only snapshots.
func (c *Client) Session() *SessionState {
	if c == nil {
		return nil
	}
	return c.session
}

// AuditDropped reports audit events discarded under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) emit(ctx context.Context, event AuditEvent) {
	if c == nil || c.audit == nil {
		return
	}
	c.audit.Emit(ctx, event)
}

func (c *Client) endpoint(path string) string {
	return c.config.HTTP.BaseURL + path
}
