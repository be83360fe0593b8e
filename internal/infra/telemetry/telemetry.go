package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/samsoft00/gold-standard/internal/infra/config"
)

// Provider holds the subsystem's Prometheus instruments. A nil Provider is a
// valid no-op handle, which is what Attach returns when metrics are disabled.
type Provider struct {
	loginAttempts     *prometheus.CounterVec
	revocationChecks  *prometheus.CounterVec
	throttleRejects   prometheus.Counter
	passwordHashTimer prometheus.Histogram
}

// Attach registers the subsystem's metrics against the default registry,
// labelled with the configured service name. Returns nil when metrics are
// disabled; every Provider method tolerates a nil receiver.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if !cfg.Telemetry.MetricsEnabled {
		return nil, nil
	}

	return attach(cfg.Telemetry.ServiceName, prometheus.DefaultRegisterer), nil
}

func attach(serviceName string, reg prometheus.Registerer) *Provider {
	labels := prometheus.Labels{}
	if serviceName != "" {
		labels["service"] = serviceName
	}
	factory := promauto.With(reg)

	return &Provider{
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "auth",
			Name:        "login_attempts_total",
			Help:        "Login attempts partitioned by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		revocationChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "auth",
			Name:        "revocation_checks_total",
			Help:        "Revocation cache lookups partitioned by result",
			ConstLabels: labels,
		}, []string{"result"}),
		throttleRejects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "auth",
			Name:        "throttle_rejections_total",
			Help:        "Requests rejected by the rate limiter",
			ConstLabels: labels,
		}),
		passwordHashTimer: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "auth",
			Name:        "password_hash_duration_seconds",
			Help:        "Time spent deriving password hashes",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}),
	}
}

// RecordLoginAttempt increments the login counter with the given outcome.
func (p *Provider) RecordLoginAttempt(outcome string) {
	if p == nil {
		return
	}
	p.loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordRevocationCheck increments the revocation lookup counter.
func (p *Provider) RecordRevocationCheck(result string) {
	if p == nil {
		return
	}
	p.revocationChecks.WithLabelValues(result).Inc()
}

// RecordThrottleRejection increments the rate limiter rejection counter.
func (p *Provider) RecordThrottleRejection() {
	if p == nil {
		return
	}
	p.throttleRejects.Inc()
}

// ObservePasswordHashDuration records a hash derivation duration.
func (p *Provider) ObservePasswordHashDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.passwordHashTimer.Observe(d.Seconds())
}
