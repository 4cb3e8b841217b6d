package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/config"
)

const sample = `
engine:
  concurrency: 4
  poll_interval: 250ms
  cron_tick_interval: 5s
retry_policies:
  payment_cancellation:
    max_attempts: 5
    backoff: 10s
  subscription_cancellation:
    max_attempts: 3
    backoff: 1m
`

func TestParse_FullFile(t *testing.T) {
	f, err := config.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := f.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	if cfg.Concurrency != 4 {
		t.Fatalf("expected concurrency 4, got %d", cfg.Concurrency)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms poll interval, got %s", cfg.PollInterval)
	}
	if cfg.CronTickInterval != 5*time.Second {
		t.Fatalf("expected 5s cron tick, got %s", cfg.CronTickInterval)
	}
	// Omitted field keeps the default.
	if cfg.ShutdownTimeout != tempo.DefaultConfig().ShutdownTimeout {
		t.Fatalf("expected default shutdown timeout, got %s", cfg.ShutdownTimeout)
	}

	payment, err := f.RetryPolicy(config.PolicyPaymentCancellation)
	if err != nil {
		t.Fatalf("RetryPolicy(payment): %v", err)
	}
	if payment.MaxAttempts != 5 || payment.Backoff != 10*time.Second {
		t.Fatalf("unexpected payment policy: %+v", payment)
	}

	sub, err := f.RetryPolicy(config.PolicySubscriptionCancellation)
	if err != nil {
		t.Fatalf("RetryPolicy(subscription): %v", err)
	}
	if sub.MaxAttempts != 3 || sub.Backoff != time.Minute {
		t.Fatalf("unexpected subscription policy: %+v", sub)
	}
}

func TestParse_EmptyFileUsesDefaults(t *testing.T) {
	f, err := config.Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := f.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	if cfg != tempo.DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestRetryPolicy_Missing(t *testing.T) {
	f, err := config.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.RetryPolicy("plan_expiry"); !errors.Is(err, config.ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
}

func TestRetryPolicy_Invalid(t *testing.T) {
	f, err := config.Parse([]byte(`
retry_policies:
  payment_cancellation:
    max_attempts: 0
    backoff: 5s
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.RetryPolicy(config.PolicyPaymentCancellation); !errors.Is(err, tempo.ErrInvalidRetryPolicy) {
		t.Fatalf("expected ErrInvalidRetryPolicy, got %v", err)
	}
}

func TestParse_BadDuration(t *testing.T) {
	f, err := config.Parse([]byte(`
engine:
  poll_interval: soon
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.EngineConfig(); err == nil {
		t.Fatal("expected an error for a malformed duration")
	}
}
