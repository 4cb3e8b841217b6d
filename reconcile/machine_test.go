package reconcile_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/reconcile"
)

// scriptedAuthority fails its cancel calls until failuresLeft reaches
// zero, then succeeds. Fetches report the scripted status.
type scriptedAuthority struct {
	mu           sync.Mutex
	status       reconcile.Status
	failuresLeft int
	fetches      int
	cancels      int
}

func (a *scriptedAuthority) GetPaymentIntent(_ context.Context, _ reconcile.Target) (reconcile.Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++
	return a.status, nil
}

func (a *scriptedAuthority) CancelPaymentIntent(_ context.Context, _ reconcile.Target) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancels++
	if a.failuresLeft > 0 {
		a.failuresLeft--
		return errors.New("authority unavailable")
	}
	return nil
}

func (a *scriptedAuthority) GetSubscription(ctx context.Context, t reconcile.Target) (reconcile.Status, error) {
	return a.GetPaymentIntent(ctx, t)
}

func (a *scriptedAuthority) CancelSubscription(ctx context.Context, t reconcile.Target) error {
	return a.CancelPaymentIntent(ctx, t)
}

func (a *scriptedAuthority) counts() (fetches, cancels int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches, a.cancels
}

// waitCounter records waits instead of sleeping.
type waitCounter struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitCounter) wait(_ context.Context, d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits = append(w.waits, d)
	return nil
}

func (w *waitCounter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waits)
}

func runPaymentCancel(t *testing.T, authority *scriptedAuthority, policy reconcile.RetryPolicy, waits *waitCounter) (tempo.Outcome, error) {
	t.Helper()
	def, err := reconcile.NewCancelPaymentIntentDefinition(authority, policy, slog.Default(),
		reconcile.WithWaitFunc(waits.wait))
	if err != nil {
		t.Fatalf("NewCancelPaymentIntentDefinition: %v", err)
	}
	return def.Handler(context.Background(), reconcile.Target{ExternalID: "pi_123", AccountID: "acct_9"})
}

func TestMachine_SucceedsAtAttemptK(t *testing.T) {
	const maxAttempts = 5
	const k = 3

	authority := &scriptedAuthority{status: reconcile.StatusPending, failuresLeft: k - 1}
	waits := &waitCounter{}
	policy := reconcile.RetryPolicy{MaxAttempts: maxAttempts, Backoff: 10 * time.Second}

	outcome, err := runPaymentCancel(t, authority, policy, waits)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != tempo.OutcomeCompleted {
		t.Fatalf("expected completed outcome, got %q", outcome)
	}

	fetches, cancels := authority.counts()
	if fetches != k || cancels != k {
		t.Fatalf("expected %d fetch/cancel cycles, got %d fetches and %d cancels", k, fetches, cancels)
	}
	if waits.count() != k-1 {
		t.Fatalf("expected %d backoff waits, got %d", k-1, waits.count())
	}
}

func TestMachine_ExhaustsWithoutError(t *testing.T) {
	const maxAttempts = 4

	authority := &scriptedAuthority{status: reconcile.StatusPending, failuresLeft: maxAttempts + 10}
	waits := &waitCounter{}
	policy := reconcile.RetryPolicy{MaxAttempts: maxAttempts, Backoff: time.Minute}

	outcome, err := runPaymentCancel(t, authority, policy, waits)
	if err != nil {
		t.Fatalf("exhaustion must not surface an error, got %v", err)
	}
	if outcome != tempo.OutcomeExhausted {
		t.Fatalf("expected exhausted outcome, got %q", outcome)
	}

	fetches, cancels := authority.counts()
	if fetches != maxAttempts || cancels != maxAttempts {
		t.Fatalf("expected %d cycles, got %d fetches and %d cancels", maxAttempts, fetches, cancels)
	}
	if waits.count() != maxAttempts-1 {
		t.Fatalf("expected %d waits, got %d", maxAttempts-1, waits.count())
	}
}

func TestMachine_TerminalStatusSucceedsWithoutCancel(t *testing.T) {
	for _, status := range []reconcile.Status{reconcile.StatusSucceeded, reconcile.StatusCanceled} {
		authority := &scriptedAuthority{status: status}
		waits := &waitCounter{}
		policy := reconcile.RetryPolicy{MaxAttempts: 3, Backoff: time.Second}

		outcome, err := runPaymentCancel(t, authority, policy, waits)
		if err != nil {
			t.Fatalf("status %q: %v", status, err)
		}
		if outcome != tempo.OutcomeCompleted {
			t.Fatalf("status %q: expected completed outcome, got %q", status, outcome)
		}
		fetches, cancels := authority.counts()
		if fetches != 1 {
			t.Fatalf("status %q: expected a single fetch, got %d", status, fetches)
		}
		if cancels != 0 {
			t.Fatalf("status %q: terminal state must not be cancelled, got %d cancels", status, cancels)
		}
	}
}

func TestMachine_SingleAttemptPolicyNeverWaits(t *testing.T) {
	authority := &scriptedAuthority{status: reconcile.StatusPending, failuresLeft: 10}
	waits := &waitCounter{}
	policy := reconcile.RetryPolicy{MaxAttempts: 1, Backoff: time.Hour}

	outcome, err := runPaymentCancel(t, authority, policy, waits)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != tempo.OutcomeExhausted {
		t.Fatalf("expected exhausted outcome, got %q", outcome)
	}
	if waits.count() != 0 {
		t.Fatalf("a single-attempt policy must not wait, got %d waits", waits.count())
	}
}

func TestMachine_ContextCancellationStopsWait(t *testing.T) {
	authority := &scriptedAuthority{status: reconcile.StatusPending, failuresLeft: 10}
	policy := reconcile.RetryPolicy{MaxAttempts: 5, Backoff: time.Hour}

	def, err := reconcile.NewCancelPaymentIntentDefinition(authority, policy, slog.Default())
	if err != nil {
		t.Fatalf("NewCancelPaymentIntentDefinition: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := def.Handler(ctx, reconcile.Target{ExternalID: "pi_123"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if outcome != tempo.OutcomeErrored {
		t.Fatalf("expected errored outcome, got %q", outcome)
	}
}

func TestRetryPolicy_Validate(t *testing.T) {
	cases := []struct {
		name   string
		policy reconcile.RetryPolicy
		ok     bool
	}{
		{"single attempt", reconcile.RetryPolicy{MaxAttempts: 1}, true},
		{"several attempts", reconcile.RetryPolicy{MaxAttempts: 5, Backoff: time.Second}, true},
		{"zero attempts", reconcile.RetryPolicy{MaxAttempts: 0, Backoff: time.Second}, false},
		{"negative attempts", reconcile.RetryPolicy{MaxAttempts: -1}, false},
		{"negative backoff", reconcile.RetryPolicy{MaxAttempts: 3, Backoff: -time.Second}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid policy, got %v", err)
			}
			if !tc.ok {
				if !errors.Is(err, tempo.ErrInvalidRetryPolicy) {
					t.Fatalf("expected ErrInvalidRetryPolicy, got %v", err)
				}
			}
		})
	}
}

func TestSubscriptionCancelDefinition_UsesSubscriptionCalls(t *testing.T) {
	authority := &scriptedAuthority{status: reconcile.StatusPending}
	policy := reconcile.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}

	def, err := reconcile.NewCancelSubscriptionDefinition(authority, policy, slog.Default())
	if err != nil {
		t.Fatalf("NewCancelSubscriptionDefinition: %v", err)
	}
	outcome, err := def.Handler(context.Background(), reconcile.Target{ExternalID: "sub_42"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != tempo.OutcomeCompleted {
		t.Fatalf("expected completed outcome, got %q", outcome)
	}
	fetches, cancels := authority.counts()
	if fetches != 1 || cancels != 1 {
		t.Fatalf("expected one fetch and one cancel, got %d/%d", fetches, cancels)
	}
}
