// Package config loads the engine's YAML configuration: worker pool
// tuning and the named retry policies the reconciliation jobs are
// constructed with. All durations are Go duration strings ("10s",
// "5m").
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/reconcile"
)

// Named retry policies resolved at job construction.
const (
	PolicyPaymentCancellation      = "payment_cancellation"
	PolicySubscriptionCancellation = "subscription_cancellation"
)

// ErrPolicyNotFound is returned when a named retry policy is missing
// from the file.
var ErrPolicyNotFound = errors.New("config: retry policy not defined")

// File is the on-disk configuration shape.
type File struct {
	Engine        EngineSection                 `yaml:"engine"`
	RetryPolicies map[string]RetryPolicySection `yaml:"retry_policies"`
}

// EngineSection tunes the worker pool. Omitted fields fall back to
// tempo.DefaultConfig.
type EngineSection struct {
	Concurrency      int    `yaml:"concurrency"`
	PollInterval     string `yaml:"poll_interval"`
	CronTickInterval string `yaml:"cron_tick_interval"`
	ShutdownTimeout  string `yaml:"shutdown_timeout"`
}

// RetryPolicySection is one named retry policy.
type RetryPolicySection struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Backoff     string `yaml:"backoff"`
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes YAML configuration bytes.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return &f, nil
}

// EngineConfig resolves the engine section against defaults.
func (f *File) EngineConfig() (tempo.Config, error) {
	cfg := tempo.DefaultConfig()
	if f.Engine.Concurrency > 0 {
		cfg.Concurrency = f.Engine.Concurrency
	}
	var err error
	if cfg.PollInterval, err = parseDurationOrDefault("engine.poll_interval", f.Engine.PollInterval, cfg.PollInterval); err != nil {
		return tempo.Config{}, err
	}
	if cfg.CronTickInterval, err = parseDurationOrDefault("engine.cron_tick_interval", f.Engine.CronTickInterval, cfg.CronTickInterval); err != nil {
		return tempo.Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDurationOrDefault("engine.shutdown_timeout", f.Engine.ShutdownTimeout, cfg.ShutdownTimeout); err != nil {
		return tempo.Config{}, err
	}
	return cfg, nil
}

// RetryPolicy resolves a named retry policy and validates it. Each
// reconciliation job takes its resolved policy at construction; there
// is no global runtime lookup.
func (f *File) RetryPolicy(name string) (reconcile.RetryPolicy, error) {
	section, ok := f.RetryPolicies[name]
	if !ok {
		return reconcile.RetryPolicy{}, fmt.Errorf("%w: %q", ErrPolicyNotFound, name)
	}
	backoff, err := parseDurationField("retry_policies."+name+".backoff", section.Backoff)
	if err != nil {
		return reconcile.RetryPolicy{}, err
	}
	policy := reconcile.RetryPolicy{
		MaxAttempts: section.MaxAttempts,
		Backoff:     backoff,
	}
	if err := policy.Validate(); err != nil {
		return reconcile.RetryPolicy{}, fmt.Errorf("retry_policies.%s: %w", name, err)
	}
	return policy, nil
}

func parseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func parseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := parseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
