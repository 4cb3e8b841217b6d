package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/cohereplatform/tempo"
)

// Target identifies an object held by the payment authority.
// AccountID is the optional connected sub-account the object lives
// under; empty means the platform account.
type Target struct {
	ExternalID string `json:"external_id"`
	AccountID  string `json:"account_id,omitempty"`
}

// Status is the authority's view of a payment intent or subscription.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether the status needs no further action: the
// object already settled or was already canceled.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusCanceled
}

// Authority is the external payment system the reconciliation loops
// converge against. Implementations wrap the payment provider's API;
// every call is remote and may fail transiently.
type Authority interface {
	GetPaymentIntent(ctx context.Context, target Target) (Status, error)
	CancelPaymentIntent(ctx context.Context, target Target) error
	GetSubscription(ctx context.Context, target Target) (Status, error)
	CancelSubscription(ctx context.Context, target Target) error
}

// RetryPolicy bounds a reconciliation loop: up to MaxAttempts cycles
// with a fixed Backoff between them. MaxAttempts of 1 means a single
// try with no retry.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" json:"backoff"`
}

// Validate checks the policy invariants.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d, need at least 1", tempo.ErrInvalidRetryPolicy, p.MaxAttempts)
	}
	if p.Backoff < 0 {
		return fmt.Errorf("%w: negative backoff %s", tempo.ErrInvalidRetryPolicy, p.Backoff)
	}
	return nil
}
