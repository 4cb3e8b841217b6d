package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/backoff"
)

// State is the reconciliation machine's lifecycle state.
type State int

const (
	StatePending State = iota
	StateRetrying
	StateSucceeded
	StateExhausted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Attempt is one cycle against the authority. done=true ends the loop
// as success; an error (or done=false) makes the machine wait out the
// backoff and try again, budget permitting.
type Attempt func(ctx context.Context) (done bool, err error)

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithWaitFunc overrides the inter-attempt wait. Tests use it to count
// waits instead of sleeping.
func WithWaitFunc(wait func(ctx context.Context, d time.Duration) error) MachineOption {
	return func(m *Machine) { m.wait = wait }
}

// Machine drives one bounded reconciliation loop: Pending, then
// Retrying(n) for each attempt, ending in Succeeded or Exhausted.
// The wait between attempts is a timer select, not a bare sleep, and
// honors context cancellation.
type Machine struct {
	policy  RetryPolicy
	backoff backoff.Strategy
	logger  *slog.Logger
	wait    func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	state   State
	attempt int
}

// NewMachine creates a Machine for one loop execution. The policy must
// already be validated; NewMachine does not re-check it.
func NewMachine(policy RetryPolicy, logger *slog.Logger, opts ...MachineOption) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		policy:  policy,
		backoff: backoff.NewConstant(policy.Backoff),
		logger:  logger,
		wait:    timerWait,
		state:   StatePending,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the machine's current state and attempt number.
func (m *Machine) State() (State, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.attempt
}

func (m *Machine) transition(state State, attempt int) {
	m.mu.Lock()
	m.state = state
	m.attempt = attempt
	m.mu.Unlock()
}

// Run executes the loop: up to MaxAttempts cycles of attempt, with a
// backoff wait before every cycle after the first. Success returns
// tempo.OutcomeCompleted. A spent budget returns tempo.OutcomeExhausted
// with a nil error: exhaustion is a recorded outcome, not a failure
// that would re-trigger store-level retries. Only context cancellation
// returns an error.
func (m *Machine) Run(ctx context.Context, attempt Attempt) (tempo.Outcome, error) {
	for n := 1; n <= m.policy.MaxAttempts; n++ {
		if n > 1 {
			if err := m.wait(ctx, m.backoff.Delay(n-1)); err != nil {
				return tempo.OutcomeErrored, err
			}
		}
		m.transition(StateRetrying, n)

		done, err := attempt(ctx)
		if done {
			m.transition(StateSucceeded, n)
			return tempo.OutcomeCompleted, nil
		}
		if err != nil {
			m.logger.Warn("reconciliation attempt failed",
				slog.Int("attempt", n),
				slog.Int("max_attempts", m.policy.MaxAttempts),
				slog.String("error", err.Error()),
			)
		}
	}

	m.transition(StateExhausted, m.policy.MaxAttempts)
	m.logger.Warn("reconciliation retries exhausted",
		slog.Int("max_attempts", m.policy.MaxAttempts),
	)
	return tempo.OutcomeExhausted, nil
}

// timerWait blocks for d using a timer select so cancellation is
// honored mid-wait.
func timerWait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
