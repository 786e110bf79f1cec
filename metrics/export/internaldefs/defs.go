package internaldefs

import (
	goAccounts "github.com/MrEthical07/goAccounts"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goAccounts.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goAccounts.MetricID
	Name string
	Help string
}

// CounterDefs maps every counter metric to its exposition name.
var CounterDefs = []CounterDef{
	{ID: goAccounts.MetricFetchSuccess, Name: "goaccounts_fetch_success_total", Help: "Round trips that returned a 2xx envelope."},
	{ID: goAccounts.MetricFetchFailure, Name: "goaccounts_fetch_failure_total", Help: "Round trips that returned a non-2xx envelope."},
	{ID: goAccounts.MetricFetchTransportError, Name: "goaccounts_fetch_transport_error_total", Help: "Round trips that failed below HTTP."},
	{ID: goAccounts.MetricUnauthorized, Name: "goaccounts_unauthorized_total", Help: "401 responses seen by the session-aware wrapper."},
	{ID: goAccounts.MetricRefreshIssued, Name: "goaccounts_refresh_issued_total", Help: "Session-refresh calls."},
	{ID: goAccounts.MetricRetryIssued, Name: "goaccounts_retry_issued_total", Help: "Post-refresh retries of the original request."},
	{ID: goAccounts.MetricRetryRecovered, Name: "goaccounts_retry_recovered_total", Help: "Retries that came back 2xx."},
	{ID: goAccounts.MetricForcedSignOut, Name: "goaccounts_forced_sign_out_total", Help: "Unrecoverable-session navigations to sign-in."},
	{ID: goAccounts.MetricSignInSuccess, Name: "goaccounts_sign_in_success_total", Help: "Sign-ins that established a session."},
	{ID: goAccounts.MetricSignInPendingTwoFactor, Name: "goaccounts_sign_in_pending_two_factor_total", Help: "Sign-ins parked on a TOTP step."},
	{ID: goAccounts.MetricSignInFailure, Name: "goaccounts_sign_in_failure_total", Help: "Rejected sign-in attempts."},
	{ID: goAccounts.MetricTOTPVerifySuccess, Name: "goaccounts_totp_verify_success_total", Help: "Completed two-factor sign-ins."},
	{ID: goAccounts.MetricTOTPVerifyFailure, Name: "goaccounts_totp_verify_failure_total", Help: "Rejected TOTP codes."},
	{ID: goAccounts.MetricSignOut, Name: "goaccounts_sign_out_total", Help: "Sign-out calls."},
	{ID: goAccounts.MetricSessionChecked, Name: "goaccounts_session_checked_total", Help: "Session-check calls."},
	{ID: goAccounts.MetricRegisterAccepted, Name: "goaccounts_register_accepted_total", Help: "Registrations the backend accepted."},
	{ID: goAccounts.MetricRegisterRejected, Name: "goaccounts_register_rejected_total", Help: "Registrations the backend rejected."},
	{ID: goAccounts.MetricProfileUpdateAccepted, Name: "goaccounts_profile_update_accepted_total", Help: "Accepted profile updates."},
	{ID: goAccounts.MetricProfileUpdateRejected, Name: "goaccounts_profile_update_rejected_total", Help: "Rejected profile updates."},
	{ID: goAccounts.MetricValidationPassed, Name: "goaccounts_validation_passed_total", Help: "Local validations that returned valid."},
	{ID: goAccounts.MetricValidationRejected, Name: "goaccounts_validation_rejected_total", Help: "Local validations that accumulated errors."},
	{ID: goAccounts.MetricVerificationCall, Name: "goaccounts_verification_call_total", Help: "Calls to the verifications endpoint family."},
}

// HistogramDefs maps every histogram metric to its exposition name.
var HistogramDefs = []HistogramDef{
	{ID: goAccounts.MetricFetchLatency, Name: "goaccounts_fetch_latency_ms", Help: "Round-trip latency in milliseconds."},
}

// HistogramBounds are the le labels of the fixed 8-bucket layout.
var HistogramBounds = []string{
	"5",
	"10",
	"25",
	"50",
	"100",
	"250",
	"500",
	"+Inf",
}

// HistogramBoundSuffix are metric-name-safe spellings of HistogramBounds
// for backends without label support.
var HistogramBoundSuffix = []string{
	"5",
	"10",
	"25",
	"50",
	"100",
	"250",
	"500",
	"inf",
}

// NormalizeBuckets pads or trims a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
