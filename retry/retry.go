// Package retry wraps a single walker invocation with bounded exponential
// backoff and jitter. The policy is explicit composition: the scheduler
// calls Execute, Execute calls the walker.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// Policy controls retry behavior for one scan unit. Only transient
// failures are retried; permission-denied and not-found are deterministic
// conditions and surface immediately.
type Policy struct {
	// MaxAttempts is the total number of walker calls, first try included.
	MaxAttempts int

	// BaseDelay is the backoff before the first retry. It doubles each
	// attempt, capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the backoff window.
	MaxDelay time.Duration

	// sleep and now are swapped out by tests.
	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

// DefaultPolicy mirrors the provider guidance: three attempts, backoff
// starting at 4s and capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   4 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Valid reports whether the policy can run at all.
func (p Policy) Valid() bool {
	return p.MaxAttempts >= 1 && p.BaseDelay > 0 && p.MaxDelay >= p.BaseDelay
}

// Execute runs one scan unit through the walker, retrying transient
// failures. The returned outcome carries the attempt count and either
// the normalized records (invalid raws split out as validation errors)
// or the final classified failure.
func (p Policy) Execute(ctx context.Context, w walker.Walker, scope types.ScanScope) types.ScanOutcome {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	now := p.now
	if now == nil {
		now = time.Now
	}

	delay := p.BaseDelay
	outcome := types.ScanOutcome{Scope: scope}

	for {
		outcome.Attempts++

		if err := ctx.Err(); err != nil {
			outcome.Failure = &types.ScanFailure{
				Class:   types.FailureCancelled,
				Message: err.Error(),
			}
			return outcome
		}

		raws, err := w.Fetch(ctx, scope)
		if err == nil {
			return p.normalize(outcome, scope, raws, now())
		}

		class := walker.Classify(err)
		if !class.Retryable() || outcome.Attempts >= p.MaxAttempts {
			outcome.Failure = &types.ScanFailure{
				Class:   class,
				Message: err.Error(),
			}
			return outcome
		}

		// Jitter within the current delay window so concurrently failing
		// units don't retry in lockstep.
		wait := delay + rand.N(delay)
		if err := sleep(ctx, wait); err != nil {
			outcome.Failure = &types.ScanFailure{
				Class:   types.FailureCancelled,
				Message: err.Error(),
			}
			return outcome
		}
		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}

func (p Policy) normalize(outcome types.ScanOutcome, scope types.ScanScope, raws []walker.RawResource, collectedAt time.Time) types.ScanOutcome {
	for _, raw := range raws {
		record := raw.Record(scope, collectedAt)
		if err := record.Validate(); err != nil {
			outcome.Invalid = append(outcome.Invalid, types.ValidationError{
				Scope:      scope,
				Identifier: raw.Identifier,
				Reason:     err.Error(),
			})
			continue
		}
		outcome.Records = append(outcome.Records, record)
	}
	return outcome
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
