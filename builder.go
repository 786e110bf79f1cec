package goAccounts

import (
	"net/http"
	"net/http/cookiejar"
)

// Builder assembles a [Client]. Configure it during initialization and call
// [Builder.Build] once; a Builder is not safe for concurrent use.
type Builder struct {
	config Config

	httpClient *http.Client
	transport  []func(http.RoundTripper) http.RoundTripper
	navigator  Navigator
	auditSink  AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the backend origin.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.HTTP.BaseURL = baseURL
	return b
}

// WithHTTPClient supplies a prebuilt http.Client. Build decorates a shallow
// copy and leaves the supplied client untouched; the copy's cookie jar
// (created when absent) is the only session carrier, and the client never
// persists credentials elsewhere.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithTransport appends round-tripper decorators applied outermost-first to
// every outbound request. See the middleware subpackage.
func (b *Builder) WithTransport(mw ...func(http.RoundTripper) http.RoundTripper) *Builder {
	b.transport = append(b.transport, mw...)
	return b
}

// WithNavigator sets the sign-in navigation side effect used by the
// unrecoverable-session branch of FetchWithRefresh.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithAuditSink sets the sink receiving [AuditEvent] values. A non-nil sink
// enables audit dispatch; buffering stays under [AuditConfig]. A later
// [Builder.WithConfig] replaces the whole configuration, Audit.Enabled
// included.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the fetch latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	normalizeConfig(&cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	// Decorate a shallow copy so the caller's client keeps its own
	// timeout, jar, and transport.
	httpClient := &http.Client{}
	if b.httpClient != nil {
		clone := *b.httpClient
		httpClient = &clone
	}
	if httpClient.Timeout == 0 && cfg.HTTP.Timeout > 0 {
		httpClient.Timeout = cfg.HTTP.Timeout
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}

	rt := httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(b.transport) - 1; i >= 0; i-- {
		if b.transport[i] != nil {
			rt = b.transport[i](rt)
		}
	}
	httpClient.Transport = rt

	// The credential-omitting twin shares transport and timeout but has no
	// jar, so neither cookies out nor set-cookies in touch the session.
	bare := &http.Client{
		Transport: rt,
		Timeout:   httpClient.Timeout,
	}

	navigator := b.navigator
	if navigator == nil {
		navigator = NoOpNavigator{}
	}

	c := &Client{
		config:    cfg,
		http:      httpClient,
		bare:      bare,
		navigator: navigator,
		session:   newSessionState(),
		metrics:   NewMetrics(cfg.Metrics),
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
	}

	b.built = true
	return c, nil
}
