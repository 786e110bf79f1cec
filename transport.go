package goAccounts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CredentialsMode says whether a request rides the session cookie jar.
type CredentialsMode uint8

const (
	// CredentialsInclude sends and stores session cookies. Default.
	CredentialsInclude CredentialsMode = iota
	// CredentialsOmit issues the request without a cookie jar; no cookies
	// go out and no set-cookies are kept.
	CredentialsOmit
)

// FetchRequest describes one backend call.
type FetchRequest struct {
	// URL is the absolute target URL.
	URL string
	// Method defaults to GET.
	Method string
	// ContentType defaults to "application/json" when Body is non-nil.
	ContentType string
	// Credentials selects the cookie-carrying or bare client.
	Credentials CredentialsMode
	// Body is JSON-encoded when non-nil.
	Body any
}

// FetchResult is the envelope produced once per round trip. Data is the full
// parsed body (nil when the body is absent or not JSON) and Message is the
// text extracted from it. A fresh envelope is produced for every attempt;
// retries never reuse one.
type FetchResult struct {
	Status     int
	StatusText string
	Data       *Payload
	Message    string
}

// OK reports a 2xx status.
func (r *FetchResult) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Fetch issues one request and decodes the envelope. Failures below HTTP
// (connection refused, canceled context, unreadable body) yield a synthetic
// 500 envelope rather than an error, mirroring how the view layer consumes
// every outcome as an envelope. The returned error is non-nil only when the
// request could not be constructed at all.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := req.ContentType
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if ua := c.config.HTTP.UserAgent; ua != "" {
		httpReq.Header.Set("User-Agent", ua)
	}

	client := c.http
	if req.Credentials == CredentialsOmit {
		client = c.bare
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		c.metricInc(MetricFetchTransportError)
		c.emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: AuditFetch,
			RequestID: requestID,
			Method:    method,
			URL:       req.URL,
			Status:    http.StatusInternalServerError,
			Error:     err.Error(),
		})
		// The original fetch helper reports transport failures as a
		// synthetic envelope with this exact status text.
		return &FetchResult{
			Status:     http.StatusInternalServerError,
			StatusText: "Internal server error",
		}, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, c.config.HTTP.MaxResponseBytes))

	result := &FetchResult{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Data:       decodePayload(raw),
	}
	if result.Data != nil {
		result.Message = result.Data.Message
	}

	c.metrics.Observe(MetricFetchLatency, time.Since(start))
	if result.OK() {
		c.metricInc(MetricFetchSuccess)
	} else {
		c.metricInc(MetricFetchFailure)
	}
	c.emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditFetch,
		RequestID: requestID,
		Method:    method,
		URL:       req.URL,
		Status:    result.Status,
		Success:   result.OK(),
	})

	return result, nil
}

// FetchWithRefresh issues a request and transparently recovers from an
// expired session once. A non-401 first response passes through unchanged.
// On 401 it issues one session-refresh call; when the refresh itself comes
// back 2xx the original session is unrecoverable: the refresh endpoint has
// confirmed a session minted for a different flow. The session state is
// cleared, the Navigator is pointed at sign-in, and the call fails with
// [ErrNoActiveSession]. Any other refresh outcome is followed by exactly one
// retry of the original request, whose envelope is returned as-is. At most
// one refresh and one retry per call; never recursion.
func (c *Client) FetchWithRefresh(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	first, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if first.Status != http.StatusUnauthorized {
		return first, nil
	}

	c.metricInc(MetricUnauthorized)
	c.metricInc(MetricRefreshIssued)
	refresh, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(c.config.Session.RefreshPath),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
	})
	if err != nil {
		return nil, err
	}
	c.emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditSessionRefresh,
		Method:    http.MethodPost,
		URL:       c.endpoint(c.config.Session.RefreshPath),
		Status:    refresh.Status,
		Success:   refresh.OK(),
	})

	if refresh.OK() {
		c.metricInc(MetricForcedSignOut)
		c.session.clear()
		c.navigator.NavigateToSignIn(c.config.Session.SignInPath)
		c.emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: AuditForcedSignOut,
			URL:       req.URL,
			Error:     ErrNoActiveSession.Error(),
		})
		return nil, ErrNoActiveSession
	}

	c.metricInc(MetricRetryIssued)
	retry, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if retry.OK() {
		c.metricInc(MetricRetryRecovered)
	}
	return retry, nil
}
