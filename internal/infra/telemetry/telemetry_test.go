package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/samsoft00/gold-standard/internal/infra/config"
)

func TestAttachDisabledReturnsNilProvider(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Telemetry.MetricsEnabled = false

	p, err := Attach(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil provider when metrics are disabled")
	}

	// All instruments must be safe to call on the nil handle.
	p.RecordLoginAttempt("success")
	p.RecordRevocationCheck("hit")
	p.RecordThrottleRejection()
	p.ObservePasswordHashDuration(50 * time.Millisecond)
}

func TestProviderCarriesServiceLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := attach("admin-auth", reg)

	p.RecordLoginAttempt("success")
	p.RecordThrottleRejection()
	p.ObservePasswordHashDuration(25 * time.Millisecond)

	got := testutil.ToFloat64(p.loginAttempts.WithLabelValues("success"))
	if got != 1 {
		t.Fatalf("expected 1 login attempt, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() != "auth_login_attempts_total" {
			continue
		}
		found = true
		for _, m := range mf.GetMetric() {
			hasService := false
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "service" && lp.GetValue() == "admin-auth" {
					hasService = true
				}
			}
			if !hasService {
				t.Fatal("expected service label on login attempts metric")
			}
		}
	}
	if !found {
		t.Fatal("auth_login_attempts_total not registered")
	}
}
