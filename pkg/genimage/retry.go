package genimage

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/schema"
)

// Attempt policy for one asset: every generation runs through a small state
// machine. Each attempt either succeeds, fails transiently (try again after a
// growing delay), or fails permanently (give up immediately). Post-processing
// failures never reach this package; they are permanent by construction.
const (
	// MaxAttempts bounds the state machine: attempts 1..MaxAttempts.
	MaxAttempts = 3

	// baseDelay grows linearly with the attempt number: 5s after the first
	// failure, 10s after the second.
	baseDelay = 5 * time.Second
)

// SleepFunc waits for a duration or until the context is cancelled. Tests
// inject a recording stub so retry schedules are asserted without waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retryer wraps a Generator with the retry policy.
type Retryer struct {
	gen    Generator
	sleep  SleepFunc
	logger *log.Logger
}

// NewRetryer wraps gen. A nil sleep uses [ContextSleep]; a nil logger
// discards retry chatter.
func NewRetryer(gen Generator, sleep SleepFunc, logger *log.Logger) *Retryer {
	if sleep == nil {
		sleep = ContextSleep
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Retryer{gen: gen, sleep: sleep, logger: logger}
}

// Generate runs the wrapped generator through up to MaxAttempts attempts.
// Transient failures wait attempt*5s before the next try; a server-supplied
// Retry-After longer than the scheduled delay takes precedence. Permanent
// failures and context cancellation return immediately.
func (r *Retryer) Generate(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := r.gen.Generate(ctx, spec)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !errors.IsTransient(err) {
			return nil, err
		}
		if attempt == MaxAttempts {
			break
		}

		delay := time.Duration(attempt) * baseDelay
		var rl *errors.RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			if server := time.Duration(rl.RetryAfter) * time.Second; server > delay {
				delay = server
			}
		}

		r.logger.Warn("generation attempt failed, retrying",
			"asset", spec.Filename, "attempt", attempt, "delay", delay, "error", err)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	// Exhaustion keeps the transient classification: the condition was never
	// the request's fault, the service just would not cooperate in time.
	return nil, errors.Wrap(errors.ErrCodeGenerationTransient, lastErr,
		"generation of %s failed after %d attempts", spec.Filename, MaxAttempts)
}
