package goAccounts

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	pathSessions   = "/api/v1/sessions"
	pathVerifyTOTP = "/api/v1/sessions/verify-totp"
)

// SignInInput is one sign-in attempt. CaptchaToken is the solved hCaptcha
// token collected by the view; the backend rejects attempts without one.
type SignInInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"hCaptchaToken"`
}

// CheckSession asks the backend whether the cookie jar still holds a live
// session. On success the session state is updated and the current user
// returned; otherwise ErrNotSignedIn.
func (c *Client) CheckSession(ctx context.Context) (*User, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	c.metricInc(MetricSessionChecked)

	result, err := c.FetchWithRefresh(ctx, FetchRequest{
		URL:         c.endpoint(pathSessions),
		Method:      http.MethodGet,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
	})
	if err != nil {
		return nil, err
	}
	if !result.OK() || result.Data == nil || result.Data.User == nil {
		c.session.clear()
		return nil, ErrNotSignedIn
	}

	c.session.set(result.Data.User)
	_, _ = c.SessionExpiry()
	user, _ := c.session.Current()
	return &user, nil
}

// SignIn posts email, password, and captcha token and returns a tagged
// outcome. A body carrying the user means a session was established; a body
// carrying a pending user id means the account requires a TOTP code next
// (complete with [Client.VerifyTOTP]); anything else is a failure whose
// Message explains why. The outcome is derived from the structured body, not
// from matching on message text.
func (c *Client) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	result, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathSessions),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
		Body:        input,
	})
	if err != nil {
		return nil, err
	}

	outcome := c.signInOutcome(ctx, result)
	c.emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditSignIn,
		Status:    result.Status,
		Success:   outcome.Outcome == SignInSucceeded,
		Metadata:  map[string]string{"outcome": outcome.Outcome.String()},
	})
	return outcome, nil
}

// VerifyTOTP completes a two-factor sign-in parked by [Client.SignIn]. The
// code must be the six-digit value from the authenticator app.
func (c *Client) VerifyTOTP(ctx context.Context, pendingUserID int64, code string) (*SignInResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	code = strings.TrimSpace(code)
	// Only obviously incomplete input is rejected locally; the backend
	// judges anything six characters or longer.
	if len(code) < 6 {
		c.metricInc(MetricTOTPVerifyFailure)
		return &SignInResult{
			Outcome: SignInFailed,
			Message: "TOTP must be 6 digits",
		}, nil
	}

	result, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathVerifyTOTP),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
		Body: map[string]any{
			"userId":   pendingUserID,
			"totpCode": code,
		},
	})
	if err != nil {
		return nil, err
	}

	if result.OK() && result.Data != nil && result.Data.User != nil {
		c.session.set(result.Data.User)
		_, _ = c.SessionExpiry()
		c.metricInc(MetricTOTPVerifySuccess)
		user, _ := c.session.Current()
		return &SignInResult{
			Outcome: SignInSucceeded,
			User:    &user,
			Message: result.Message,
			Result:  result,
		}, nil
	}

	c.metricInc(MetricTOTPVerifyFailure)
	message := result.Message
	if message == "" {
		message = "Invalid TOTP"
	}
	return &SignInResult{
		Outcome: SignInFailed,
		Message: message,
		Result:  result,
	}, nil
}

// SignOut destroys the backend session and clears the local session state
// regardless of the backend's answer.
func (c *Client) SignOut(ctx context.Context) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	result, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathSessions),
		Method:      http.MethodDelete,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
	})
	if err != nil {
		return nil, err
	}

	c.session.clear()
	c.metricInc(MetricSignOut)
	c.emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditSignOut,
		Status:    result.Status,
		Success:   result.OK(),
	})
	return result, nil
}

// RefreshSession calls the refresh endpoint directly. FetchWithRefresh uses
// the same endpoint internally; this method exists for callers that refresh
// proactively off [Client.SessionExpiry].
func (c *Client) RefreshSession(ctx context.Context) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	c.metricInc(MetricRefreshIssued)
	return c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(c.config.Session.RefreshPath),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
	})
}

func (c *Client) signInOutcome(ctx context.Context, result *FetchResult) *SignInResult {
	if result.OK() && result.Data != nil {
		if result.Data.User != nil {
			c.session.set(result.Data.User)
			_, _ = c.SessionExpiry()
			c.metricInc(MetricSignInSuccess)
			user, _ := c.session.Current()
			return &SignInResult{
				Outcome: SignInSucceeded,
				User:    &user,
				Message: result.Message,
				Result:  result,
			}
		}
		if result.Data.UserID != 0 {
			c.metricInc(MetricSignInPendingTwoFactor)
			return &SignInResult{
				Outcome:       SignInPendingTwoFactor,
				PendingUserID: result.Data.UserID,
				Message:       result.Message,
				Result:        result,
			}
		}
	}

	c.metricInc(MetricSignInFailure)
	return &SignInResult{
		Outcome: SignInFailed,
		Message: result.Message,
		Result:  result,
	}
}
