package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/calbook/internal/instrumentation"
	"github.com/teemow/calbook/internal/logging"
	"github.com/teemow/calbook/internal/provider"
)

// RetryPolicy bounds the exponential backoff applied to transient failures.
type RetryPolicy struct {
	// MaxAttempts includes the first call (default: 3). 1 disables retries.
	MaxAttempts int

	InitialInterval time.Duration // default: 250ms
	MaxInterval     time.Duration // default: 2s

	// MaxElapsed caps the total time spent retrying (default: 15s).
	MaxElapsed time.Duration
}

// DefaultRetryPolicy returns the policy used for zero-valued fields.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsed:      15 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = d.MaxElapsed
	}
	return p
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

// do runs call under a span with the per-call timeout, classifying failures
// and retrying the transient ones. attempt starts at 1.
func do[T any](ctx context.Context, c *Client, op string, call func(ctx context.Context, attempt int) (T, error)) (T, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, op,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(c.calendarID).Build()...)
	defer span.End()

	logger := logging.WithOperation(c.logger, "google.calendar."+op)
	attempt := 0

	operation := func() (T, error) {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		start := time.Now()
		res, err := call(callCtx, attempt)
		if err != nil {
			err = classify(op, err)
			c.metrics.RecordGoogleAPIOperation(ctx, op, instrumentation.StatusError, time.Since(start))
			if !provider.IsRetryable(err) {
				return res, backoff.Permanent(err)
			}
			return res, err
		}
		c.metrics.RecordGoogleAPIOperation(ctx, op, instrumentation.StatusSuccess, time.Since(start))
		return res, nil
	}

	notify := func(err error, wait time.Duration) {
		kind := string(provider.KindOf(err))
		c.metrics.RecordGoogleAPIRetry(ctx, op, kind)
		instrumentation.MarkRetry(span, attempt, err)
		logger.WarnContext(ctx, "retrying calendar call",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			logging.Err(err))
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.retry.backOff()),
		backoff.WithMaxTries(uint(c.retry.MaxAttempts)),
		backoff.WithMaxElapsedTime(c.retry.MaxElapsed),
		backoff.WithNotify(notify),
	)
	if err != nil {
		err = classify(op, err)
		instrumentation.SetSpanError(span, err)
		logger.DebugContext(ctx, "calendar call failed", slog.Int("attempts", attempt), logging.Err(err))
		return res, err
	}

	instrumentation.SetSpanSuccess(span)
	return res, nil
}
