package domain

import "strings"

// DegradationPolicyMode enumerates supported behaviors when the revocation
// cache cannot be consulted.
type DegradationPolicyMode string

const (
	// DegradationPolicyModeLenient allows token validation to proceed when the
	// revocation cache is unreachable, accepting temporarily-stale revocation
	// state as a documented risk.
	DegradationPolicyModeLenient DegradationPolicyMode = "lenient"
	// DegradationPolicyModeStrict rejects token validation whenever revocation
	// state cannot be confirmed.
	DegradationPolicyModeStrict DegradationPolicyMode = "strict"
)

// DegradationPolicy centralises how the service responds when revocation data
// is unavailable. Revocation writes are always fail-closed; only reads consult
// this policy.
type DegradationPolicy struct {
	mode DegradationPolicyMode
}

// NewDegradationPolicy builds a policy for the given mode. Anything other
// than strict falls back to lenient.
func NewDegradationPolicy(mode DegradationPolicyMode) DegradationPolicy {
	if mode != DegradationPolicyModeStrict {
		mode = DegradationPolicyModeLenient
	}
	return DegradationPolicy{mode: mode}
}

// ParseDegradationPolicyMode reads a mode from config text. Unknown values
// parse as lenient.
func ParseDegradationPolicyMode(value string) DegradationPolicyMode {
	if strings.EqualFold(strings.TrimSpace(value), string(DegradationPolicyModeStrict)) {
		return DegradationPolicyModeStrict
	}
	return DegradationPolicyModeLenient
}

// Mode reports the configured mode.
func (p DegradationPolicy) Mode() DegradationPolicyMode {
	return p.mode
}

// IsStrict reports whether unavailable revocation state must fail the check.
func (p DegradationPolicy) IsStrict() bool {
	return p.mode == DegradationPolicyModeStrict
}
