package goAccounts

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goAccounts/password"
)

const (
	pathVerifyAccountByEmail  = "/api/v1/verifications/verify-account-by-email"
	pathConfirmEmailChange    = "/api/v1/verifications/confirm-email-change"
	pathResendVerification    = "/api/v1/verifications/resend-verification-email"
	pathSendPasswordReset     = "/api/v1/verifications/send-password-reset-email"
	pathResetPassword         = "/api/v1/verifications/reset-password"
	pathRequestDeletion       = "/api/v1/verifications/request-account-deletion"
	pathGetTOTPSecret         = "/api/v1/verifications/get-totp-secret"
	pathSetTOTPAuth           = "/api/v1/verifications/set-totp-auth"
	msgMissingToken           = "Missing token"
	msgInvalidEmailFormat     = "Invalid email address format"
)

// ResetPasswordInput is the confirm step of the password-reset flow. Token
// comes from the emailed link's query string.
type ResetPasswordInput struct {
	Email             string
	NewPassword       string
	ReEnteredPassword string
	Token             string
}

// VerifyAccountByEmail redeems the verification token from a registration
// email.
func (c *Client) VerifyAccountByEmail(ctx context.Context, token string) (*FetchResult, error) {
	return c.tokenLink(ctx, pathVerifyAccountByEmail, token)
}

// ConfirmEmailChange redeems the confirmation token from an email-change
// message.
func (c *Client) ConfirmEmailChange(ctx context.Context, token string) (*FetchResult, error) {
	return c.tokenLink(ctx, pathConfirmEmailChange, token)
}

// ResendVerificationEmail asks the backend to send the account-verification
// message again. The backend answers with a deliberately vague message so
// the endpoint cannot be used to probe which addresses exist.
func (c *Client) ResendVerificationEmail(ctx context.Context, email string) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	c.metricInc(MetricVerificationCall)
	return c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathResendVerification),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsOmit,
		Body:        map[string]string{"email": email},
	})
}

// SendPasswordResetEmail starts the password-reset flow. The email address
// is format-checked locally first; the backend's answer is equally vague
// about whether the address exists.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) (*ValidationResult, *FetchResult, error) {
	if c == nil {
		return nil, nil, ErrClientNotReady
	}

	var local []string
	if email == "" {
		local = append(local, msgEmailRequired)
	} else if !emailPattern.MatchString(email) {
		local = append(local, msgInvalidEmailFormat)
	}
	if len(local) > 0 {
		return &ValidationResult{Valid: false, ValidationErrors: local}, nil, nil
	}

	c.metricInc(MetricVerificationCall)
	result, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathSendPasswordReset),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsOmit,
		Body:        map[string]string{"email": email},
	})
	if err != nil {
		return nil, nil, err
	}
	return &ValidationResult{Valid: true}, result, nil
}

// ResetPassword completes the reset flow with the emailed token and a new
// password. Format and confirmation rules are enforced locally with the
// same accumulated-messages contract as [Client.ValidateUser]; nothing is
// sent until the input is clean.
func (c *Client) ResetPassword(ctx context.Context, input ResetPasswordInput) (*ValidationResult, *FetchResult, error) {
	if c == nil {
		return nil, nil, ErrClientNotReady
	}

	var local []string
	if input.Token == "" {
		local = append(local, msgMissingToken)
	}
	if !password.MeetsPolicy(input.NewPassword) {
		local = append(local, msgPasswordFormat)
	}
	if input.NewPassword != input.ReEnteredPassword {
		local = append(local, msgPasswordsMatch)
	}
	if len(local) > 0 {
		c.metricInc(MetricValidationRejected)
		return &ValidationResult{Valid: false, ValidationErrors: local}, nil, nil
	}

	c.metricInc(MetricVerificationCall)
	result, err := c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(pathResetPassword),
		Method:      http.MethodPatch,
		ContentType: "application/json",
		Credentials: CredentialsOmit,
		Body: map[string]string{
			"email":       input.Email,
			"newPassword": input.NewPassword,
			"token":       input.Token,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return &ValidationResult{Valid: true}, result, nil
}

// RequestAccountDeletion asks the backend to email a deletion-confirmation
// link for the given account. Requires a live session.
func (c *Client) RequestAccountDeletion(ctx context.Context, userID int64) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	c.metricInc(MetricVerificationCall)
	return c.FetchWithRefresh(ctx, FetchRequest{
		URL:         c.endpoint(pathRequestDeletion),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
		Body:        map[string]int64{"id": userID},
	})
}

// GetTOTPSecret provisions two-factor material for the given account: a QR
// code image for scanning and the base32 secret for manual entry. Nothing
// is enabled until [Client.SetTOTPAuth] confirms with a live code.
func (c *Client) GetTOTPSecret(ctx context.Context, userID int64) (*TOTPSetup, *FetchResult, error) {
	if c == nil {
		return nil, nil, ErrClientNotReady
	}
	c.metricInc(MetricVerificationCall)

	result, err := c.FetchWithRefresh(ctx, FetchRequest{
		URL:         c.endpoint(pathGetTOTPSecret),
		Method:      http.MethodPost,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
		Body:        map[string]int64{"id": userID},
	})
	if err != nil {
		return nil, nil, err
	}
	if !result.OK() || result.Data == nil || result.Data.TOTPSecret == "" {
		return nil, result, nil
	}
	return &TOTPSetup{
		QRCodeImage: result.Data.QRCodeImage,
		Secret:      result.Data.TOTPSecret,
	}, result, nil
}

// SetTOTPAuth enables or disables two-factor sign-in. Enabling requires the
// provisioned secret plus a current six-digit code; disabling zeroes the
// stored secret, and re-enabling later starts from a fresh QR code. On
// success the session state's TOTP flag is updated.
func (c *Client) SetTOTPAuth(ctx context.Context, settings TOTPSettings) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	body := map[string]any{
		"id":         settings.UserID,
		"totpAuthOn": 0,
		"totpSecret": nil,
		"totpCode":   nil,
	}
	if settings.Enabled {
		body["totpAuthOn"] = 1
		body["totpSecret"] = settings.Secret
		body["totpCode"] = settings.Code
	}

	c.metricInc(MetricVerificationCall)
	result, err := c.FetchWithRefresh(ctx, FetchRequest{
		URL:         c.endpoint(pathSetTOTPAuth),
		Method:      http.MethodPatch,
		ContentType: "application/json",
		Credentials: CredentialsInclude,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}
	if result.OK() {
		on := 0
		if settings.Enabled {
			on = 1
		}
		c.session.setTOTPAuthOn(on)
	}
	return result, nil
}

func (c *Client) tokenLink(ctx context.Context, path, token string) (*FetchResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if token == "" {
		return nil, ErrMissingToken
	}
	c.metricInc(MetricVerificationCall)
	return c.Fetch(ctx, FetchRequest{
		URL:         c.endpoint(path) + "?token=" + url.QueryEscape(token),
		Method:      http.MethodGet,
		ContentType: "application/json",
		Credentials: CredentialsOmit,
	})
}
