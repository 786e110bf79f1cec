package goAccounts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const pathUsers = "/api/v1/users"

// Register creates a new account from the given credentials. The backend
// re-runs the validation rules; its verdict comes back either as a
// ValidationErrors list or as an acceptance whose Message tells the user to
// check their inbox. Run [Client.ValidateUser] first to catch problems
// without a round trip.
func (c *Client) Register(ctx context.Context, creds Credentials) (*UpdateResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	result, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathUsers),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
		Body:        creds,
	})
	if err != nil {
		return nil, err
	}

	update := updateResult(result)
	if update.Accepted() {
		c.metricInc(MetricRegisterAccepted)
	} else {
		c.metricInc(MetricRegisterRejected)
	}
	return update, nil
}

// GetUser fetches one record by identifier. The endpoint answers with a
// single-element array; this is the only call that exposes the stored
// password hash, which edit-mode validation needs for the unchanged-password
// check.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	result, err := c.FetchWithRefresh(ctx, FetchRequest{
		URL:         fmt.Sprintf("%s/%d", c.endpoint(pathUsers), id),
		Method:      http.MethodGet,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
	})
	if err != nil {
		return nil, err
	}
	if !result.OK() || result.Data == nil || len(result.Data.Users) == 0 {
		return nil, ErrMissingRecord
	}

	user := result.Data.Users[0]
	return &user, nil
}

// ListUsers fetches every record. It backs the validator's duplicate checks
// and implements [UserDirectory].
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	result, err := c.FetchWithRefresh(ctx, FetchRequest{
		URL:         c.endpoint(pathUsers),
		Method:      http.MethodGet,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
	})
	if err != nil {
		return nil, err
	}
	if !result.OK() || result.Data == nil {
		return nil, fmt.Errorf("%w: status %d", ErrUserDirectoryUnavailable, result.Status)
	}
	return result.Data.Users, nil
}

// UpdateProfile patches the signed-in user's fields. On acceptance the
// session state is updated from the returned user and SuccessfulUpdates
// describes each change; on rejection ValidationErrors carries the
// backend's messages.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*UpdateResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	result, err := c.FetchWithRefresh(ctx, FetchRequest{
		URL:         c.endpoint(pathUsers),
		Method:      http.MethodPatch,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
		Body:        update,
	})
	if err != nil {
		return nil, err
	}

	out := updateResult(result)
	if out.Accepted() {
		c.metricInc(MetricProfileUpdateAccepted)
		if out.User != nil {
			c.session.set(out.User)
		}
	} else {
		c.metricInc(MetricProfileUpdateRejected)
	}
	return out, nil
}

// ConfirmAccountDeletion finalizes a deletion requested by email link. The
// token comes from the link's query string. On success the local session
// state is cleared; the account is gone.
func (c *Client) ConfirmAccountDeletion(ctx context.Context, token string) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	result, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathUsers) + "?token=" + url.QueryEscape(token),
		Method:      http.MethodDelete,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
	})
	if err != nil {
		return nil, err
	}
	if result.OK() {
		c.session.clear()
	}
	return result, nil
}

// Accepted reports whether the backend accepted the mutation: a 2xx answer
// with no validation errors.
func (r *UpdateResult) Accepted() bool {
	return r != nil && r.Result.OK() && len(r.ValidationErrors) == 0
}

func updateResult(result *FetchResult) *UpdateResult {
	out := &UpdateResult{
		Message: result.Message,
		Result:  result,
	}
	if result.Data != nil {
		out.User = result.Data.User
		out.ValidationErrors = result.Data.ValidationErrors
		out.SuccessfulUpdates = result.Data.SuccessfulUpdates
	}
	return out
}
