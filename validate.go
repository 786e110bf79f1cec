package goAccounts

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/goAccounts/password"
)

// Validation messages shown to the user. The texts are part of the backend
// contract: the view renders them verbatim next to the form.
const (
	msgUsernameRequired = "Username required"
	msgUsernameFormat   = "Username must be between 3 and 20 characters, start " +
		"with a letter or an underscore and contain only " +
		"letters, numbers periods and underscores"
	msgUsernameTaken = "Username taken"
	msgEmailRequired = "Email address required"
	msgEmailFormat   = "Email address must contain only letters, numbers, " +
		"periods, underscores, hyphens, plus signs and percent " +
		"signs before the \"@\", a domain name after the \"@\", and " +
		"a valid domain extension (e.g. \".com\", \".net\", \".org\") " +
		"of at least two letters"
	msgEmailTaken       = "Email address taken"
	msgPasswordRequired = "Password required"
	msgPasswordFormat   = "Password must be at least 16 characters and include at " +
		"least one lowercase letter, one capital letter, one " +
		"number and one symbol (!@#$%^&*)"
	msgPasswordSame    = "New password same as current password"
	msgPasswordsMatch  = "Passwords must match"
	msgNoChanges       = "No changes detected"
	passwordMask       = "****************"
	msgPasswordUpdated = "Password from " + passwordMask + " to " + passwordMask
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9._]{2,19}$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// ValidateOptions controls one validation call.
type ValidateOptions struct {
	// ExcludeID switches on edit mode: the record with this identifier is
	// the baseline for unchanged-field detection and is excluded from
	// duplicate checks.
	ExcludeID int64
	// SkipDuplicateCheck bypasses the uniqueness queries, e.g. when
	// re-validating values the user is not changing.
	SkipDuplicateCheck bool
}

func (o ValidateOptions) editing() bool {
	return o.ExcludeID != 0
}

// fieldOutcome is one field's verdict: on failure message is the error to
// accumulate; on success message, when non-empty, describes the update
// relative to the edit baseline.
type fieldOutcome struct {
	valid   bool
	message string
}

// ValidateUser enforces the username, email, and password rules and
// aggregates the results. Errors are accumulated across all fields rather
// than short-circuited so the caller can show every problem at once. In edit
// mode, a run with zero errors and zero detected changes fails with a single
// "No changes detected" entry. A non-nil error means the validation itself
// could not run (the user directory was unreachable or the edit baseline is
// missing), not that the input is invalid.
func (c *Client) ValidateUser(ctx context.Context, creds Credentials, opts ValidateOptions) (*ValidationResult, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	result, err := validateUser(ctx, c, creds, opts, c.config.Validation)
	if err != nil {
		return nil, err
	}

	if result.Valid {
		c.metricInc(MetricValidationPassed)
	} else {
		c.metricInc(MetricValidationRejected)
		c.emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: AuditValidation,
			UserID:    opts.ExcludeID,
			Metadata:  map[string]string{"errors": strings.Join(result.ValidationErrors, "; ")},
		})
	}
	return result, nil
}

func validateUser(ctx context.Context, dir UserDirectory, creds Credentials, opts ValidateOptions, cfg ValidationConfig) (*ValidationResult, error) {
	skipDup := opts.SkipDuplicateCheck || cfg.DisableDuplicateCheck

	// One directory listing serves both the edit baseline and the duplicate
	// checks; the listing is never cached across calls.
	var users []User
	if opts.editing() || !skipDup {
		listed, err := dir.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUserDirectoryUnavailable, err)
		}
		users = listed
	}

	var current *User
	if opts.editing() {
		for i := range users {
			if users[i].ID == opts.ExcludeID {
				current = &users[i]
				break
			}
		}
		if current == nil {
			return nil, ErrMissingRecord
		}
	}

	var validationErrors, successfulUpdates []string
	collect := func(o fieldOutcome) {
		if !o.valid {
			validationErrors = append(validationErrors, o.message)
			return
		}
		if o.message != "" {
			successfulUpdates = append(successfulUpdates, o.message)
		}
	}

	collect(validateUsernameField(creds.Username, current, users, opts.ExcludeID, skipDup))
	collect(validateEmailField(creds.Email, current, users, opts.ExcludeID, skipDup))

	noPasswordChange := opts.editing() && creds.Password == "" && creds.ReEnteredPassword == ""

	p := validatePasswordField(creds.Password, current, opts.editing())
	if !p.valid {
		if !noPasswordChange {
			validationErrors = append(validationErrors, p.message)
		}
	} else if p.message != "" {
		successfulUpdates = append(successfulUpdates, p.message)
	}

	if creds.Password != creds.ReEnteredPassword && !noPasswordChange {
		validationErrors = append(validationErrors, msgPasswordsMatch)
	}

	if opts.editing() && len(validationErrors) == 0 && len(successfulUpdates) == 0 {
		validationErrors = append(validationErrors, msgNoChanges)
	}

	if len(validationErrors) > 0 {
		return &ValidationResult{Valid: false, ValidationErrors: validationErrors}, nil
	}
	return &ValidationResult{Valid: true, SuccessfulUpdates: successfulUpdates}, nil
}

func validateUsernameField(input string, current *User, users []User, excludeID int64, skipDup bool) fieldOutcome {
	if strings.TrimSpace(input) == "" {
		return fieldOutcome{valid: false, message: msgUsernameRequired}
	}
	if !usernamePattern.MatchString(input) {
		return fieldOutcome{valid: false, message: msgUsernameFormat}
	}
	if !skipDup && hasDuplicate(users, excludeID, func(u User) bool { return u.Username == input }) {
		return fieldOutcome{valid: false, message: msgUsernameTaken}
	}
	if current != nil && current.Username != input {
		return fieldOutcome{valid: true, message: fmt.Sprintf("Username from %s to %s", current.Username, input)}
	}
	return fieldOutcome{valid: true}
}

func validateEmailField(input string, current *User, users []User, excludeID int64, skipDup bool) fieldOutcome {
	if strings.TrimSpace(input) == "" {
		return fieldOutcome{valid: false, message: msgEmailRequired}
	}
	if !emailPattern.MatchString(input) {
		return fieldOutcome{valid: false, message: msgEmailFormat}
	}
	if !skipDup && hasDuplicate(users, excludeID, func(u User) bool { return u.Email == input }) {
		return fieldOutcome{valid: false, message: msgEmailTaken}
	}
	if current != nil && current.Email != input {
		return fieldOutcome{valid: true, message: fmt.Sprintf("Email address from %s to %s", current.Email, input)}
	}
	return fieldOutcome{valid: true}
}

// validatePasswordField checks format and, in edit mode, that the new
// password differs from the stored one. The difference check goes through
// the bcrypt hash fetched with the baseline record, never plaintext
// equality.
func validatePasswordField(input string, current *User, editing bool) fieldOutcome {
	if input == "" {
		return fieldOutcome{valid: false, message: msgPasswordRequired}
	}
	if !password.MeetsPolicy(input) {
		return fieldOutcome{valid: false, message: msgPasswordFormat}
	}
	if editing && current != nil {
		if password.MatchesHash(current.Password, input) {
			return fieldOutcome{valid: false, message: msgPasswordSame}
		}
		return fieldOutcome{valid: true, message: msgPasswordUpdated}
	}
	return fieldOutcome{valid: true}
}

func hasDuplicate(users []User, excludeID int64, match func(User) bool) bool {
	for _, u := range users {
		if u.ID == excludeID {
			continue
		}
		if match(u) {
			return true
		}
	}
	return false
}
