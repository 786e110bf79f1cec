package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// RequestID stamps an X-Request-ID header when the request carries none.
// The goAccounts client sets its own ID for audit correlation; this
// decorator covers requests issued around the client, e.g. by a caller
// reusing the same transport.
func RequestID() func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("X-Request-ID") == "" {
				req = req.Clone(req.Context())
				req.Header.Set("X-Request-ID", uuid.NewString())
			}
			return next.RoundTrip(req)
		})
	}
}

// Headers sets every given header on outbound requests, overwriting
// existing values.
func Headers(h http.Header) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			req = req.Clone(req.Context())
			for key, values := range h {
				req.Header.Del(key)
				for _, v := range values {
					req.Header.Add(key, v)
				}
			}
			return next.RoundTrip(req)
		})
	}
}

// Logger writes one line per round trip to the given logger: method, URL,
// status or error, and elapsed time. A nil logger uses the standard one.
func Logger(logger *log.Logger) func(http.RoundTripper) http.RoundTripper {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				logger.Printf("%s %s error=%v elapsed=%s", req.Method, req.URL, err, elapsed)
				return resp, err
			}
			logger.Printf("%s %s status=%d elapsed=%s", req.Method, req.URL, resp.StatusCode, elapsed)
			return resp, nil
		})
	}
}
