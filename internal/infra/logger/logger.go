package logger

import (
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey carries the request correlation id through a context.
type RequestIDKey struct{}

var (
	shared   *zap.Logger
	buildErr error
	once     sync.Once
)

// New builds the process-wide zap logger once and hands the same instance to
// every caller. Production gets JSON output; everything else gets the
// colored console encoder.
func New(env string) (*zap.Logger, error) {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if env != "production" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		shared, buildErr = cfg.Build()
	})

	return shared, buildErr
}

var emailPattern = regexp.MustCompile(`^([^@]{1,3})[^@]*(@.+)$`)

// MaskEmail keeps at most the first three characters of the local part and
// the full domain: john.doe@example.com becomes joh***@example.com. Admin
// emails are PII and never hit the logs unmasked.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	if m := emailPattern.FindStringSubmatch(email); len(m) == 3 {
		return m[1] + "***" + m[2]
	}
	if _, domain, ok := strings.Cut(email, "@"); ok {
		return "***@" + domain
	}
	return "***"
}

// MaskIP keeps the first two IPv4 octets or first four IPv6 groups, enough
// to spot a subnet in the access log without recording the caller.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	if parts := strings.Split(ip, "."); len(parts) == 4 {
		return parts[0] + "." + parts[1] + ".*.*"
	}
	if parts := strings.Split(ip, ":"); len(parts) >= 4 {
		return strings.Join(parts[:4], ":") + ":*:*:*:*"
	}
	return "***"
}

// MaskString keeps the first and last two characters of a secret so log
// lines stay correlatable without exposing the value.
func MaskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}
