package goAccounts

import (
	"bytes"
	"context"
	"encoding/json"
)

// User is the account record shape produced by the backend. The Password
// field carries the stored bcrypt hash and is populated only by the
// single-record endpoint; it is never sent back to the backend by this
// package.
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	TOTPAuthOn int    `json:"totp_auth_on"`
}

// Credentials is the transient input of one form submission. It is
// constructed fresh per call and never persisted by this layer.
type Credentials struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReEnteredPassword string `json:"reEnteredPassword"`
}

// ValidationResult is the outcome of [Client.ValidateUser]. It is never
// partially valid: either Valid is false and ValidationErrors carries every
// accumulated message, or Valid is true and SuccessfulUpdates optionally
// describes the fields that changed.
type ValidationResult struct {
	Valid             bool
	ValidationErrors  []string
	SuccessfulUpdates []string
}

// Payload is the parsed response body common to all backend endpoints.
// Endpoints populate different subsets; unknown fields are ignored. The
// single-record user endpoint returns a bare JSON array, which decodes into
// Users.
type Payload struct {
	Message           string   `json:"message"`
	User              *User    `json:"user"`
	UserID            int64    `json:"userId"`
	ValidationErrors  []string `json:"validationErrors"`
	SuccessfulUpdates []string `json:"successfulUpdates"`
	QRCodeImage       string   `json:"qrCodeImage"`
	TOTPSecret        string   `json:"totpSecret"`

	Users []User `json:"-"`
}

// decodePayload tolerates both of the backend's body shapes: a JSON object
// (the envelope) and a bare JSON array of user records.
func decodePayload(raw []byte) *Payload {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	var p Payload
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &p.Users); err != nil {
			return nil
		}
		return &p
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil
	}
	return &p
}

// SignInOutcome is the tagged result variant of a sign-in attempt. It
// replaces substring matching on response messages with an explicit
// three-way outcome.
type SignInOutcome uint8

const (
	// SignInFailed means the backend rejected the attempt or the call
	// itself failed.
	SignInFailed SignInOutcome = iota
	// SignInSucceeded means a session was established and the session
	// state now carries the signed-in user.
	SignInSucceeded
	// SignInPendingTwoFactor means the password was accepted but the
	// account requires a TOTP code; PendingUserID identifies the account
	// for [Client.VerifyTOTP].
	SignInPendingTwoFactor
)

// String returns the outcome name for logs and CLI output.
func (o SignInOutcome) String() string {
	switch o {
	case SignInSucceeded:
		return "signed-in"
	case SignInPendingTwoFactor:
		return "pending-two-factor"
	default:
		return "failed"
	}
}

// SignInResult is returned by [Client.SignIn] and [Client.VerifyTOTP].
type SignInResult struct {
	Outcome       SignInOutcome
	User          *User
	PendingUserID int64
	Message       string
	Result        *FetchResult
}

// TOTPSetup carries the provisioning material returned by
// [Client.GetTOTPSecret]: a rendered QR code image (data URI) and the
// base32 secret for manual entry.
type TOTPSetup struct {
	QRCodeImage string
	Secret      string
}

// TOTPSettings is the input for [Client.SetTOTPAuth]. Enable with the
// provisioned secret and a current code; disable with Enabled false, which
// zeroes the stored secret on the backend.
type TOTPSettings struct {
	UserID  int64
	Enabled bool
	Secret  string
	Code    string
}

// ProfileUpdate is the input for [Client.UpdateProfile]. Password fields may
// be left empty to keep the current password.
type ProfileUpdate struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReEnteredPassword string `json:"reEnteredPassword"`
}

// UpdateResult is returned by [Client.Register] and [Client.UpdateProfile].
// Exactly one of ValidationErrors and SuccessfulUpdates is populated on a
// conclusive backend answer; both empty means the call failed outright and
// Message explains why.
type UpdateResult struct {
	User              *User
	ValidationErrors  []string
	SuccessfulUpdates []string
	Message           string
	Result            *FetchResult
}

// Navigator is the side-effect surface of the unrecoverable-session branch.
// Implementations route the user to the sign-in entry point named by
// [SessionConfig.SignInPath]; a browser shim would set location, the CLI
// prints an instruction, tests record the call.
type Navigator interface {
	NavigateToSignIn(path string)
}

// NoOpNavigator ignores navigation requests.
type NoOpNavigator struct{}

// NavigateToSignIn implements [Navigator].
func (NoOpNavigator) NavigateToSignIn(string) {}

// UserDirectory is the listing source consumed by the validator's duplicate
// checks. [Client] implements it over GET /api/v1/users; tests substitute a
// fixed slice.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]User, error)
}
