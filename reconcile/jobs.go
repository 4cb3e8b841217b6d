package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/job"
)

// KindCancelPaymentIntent cancels a stale payment intent with the
// authority.
const KindCancelPaymentIntent job.Kind = "reconcile.cancel-payment-intent"

// KindCancelSubscription cancels a stale subscription with the
// authority.
const KindCancelSubscription job.Kind = "reconcile.cancel-subscription"

// NewCancelPaymentIntentDefinition builds the payment-intent
// cancellation job. Submitted via EnqueueImmediate at payment
// initiation time; each execution runs a fresh machine against the
// authority.
func NewCancelPaymentIntentDefinition(
	authority Authority,
	policy RetryPolicy,
	logger *slog.Logger,
	opts ...MachineOption,
) (*job.Definition[Target], error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("payment intent cancellation: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return job.NewDefinition(KindCancelPaymentIntent, func(ctx context.Context, target Target) (tempo.Outcome, error) {
		machine := NewMachine(policy, logger.With(
			slog.String("kind", string(KindCancelPaymentIntent)),
			slog.String("external_id", target.ExternalID),
		), opts...)
		return machine.Run(ctx, func(ctx context.Context) (bool, error) {
			status, err := authority.GetPaymentIntent(ctx, target)
			if err != nil {
				return false, fmt.Errorf("fetch payment intent %s: %w", target.ExternalID, err)
			}
			if status.Terminal() {
				return true, nil
			}
			if err := authority.CancelPaymentIntent(ctx, target); err != nil {
				return false, fmt.Errorf("cancel payment intent %s: %w", target.ExternalID, err)
			}
			return true, nil
		})
	}), nil
}

// NewCancelSubscriptionDefinition builds the subscription cancellation
// job, structurally identical to the payment-intent loop.
func NewCancelSubscriptionDefinition(
	authority Authority,
	policy RetryPolicy,
	logger *slog.Logger,
	opts ...MachineOption,
) (*job.Definition[Target], error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("subscription cancellation: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return job.NewDefinition(KindCancelSubscription, func(ctx context.Context, target Target) (tempo.Outcome, error) {
		machine := NewMachine(policy, logger.With(
			slog.String("kind", string(KindCancelSubscription)),
			slog.String("external_id", target.ExternalID),
		), opts...)
		return machine.Run(ctx, func(ctx context.Context) (bool, error) {
			status, err := authority.GetSubscription(ctx, target)
			if err != nil {
				return false, fmt.Errorf("fetch subscription %s: %w", target.ExternalID, err)
			}
			if status.Terminal() {
				return true, nil
			}
			if err := authority.CancelSubscription(ctx, target); err != nil {
				return false, fmt.Errorf("cancel subscription %s: %w", target.ExternalID, err)
			}
			return true, nil
		})
	}), nil
}
