package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amitkr/jobmail/internal/model"
)

// RetryProvider is a decorator that retries throttled completions with
// exponential backoff and jitter. Any non-throttling provider error fails
// immediately: a malformed request will not get better on a second attempt.
type RetryProvider struct {
	inner      LLMProvider
	maxRetries int
	baseDelay  time.Duration
	preDelay   time.Duration // fixed pause before every call, 0 to disable
	logger     *slog.Logger
}

// NewRetryProvider wraps an LLMProvider with throttle-aware retry logic.
// maxRetries is the number of additional attempts after the first failure.
// preDelay, when positive, spaces calls out to stay under per-minute quotas.
func NewRetryProvider(inner LLMProvider, maxRetries int, baseDelay, preDelay time.Duration, logger *slog.Logger) *RetryProvider {
	return &RetryProvider{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		preDelay:   preDelay,
		logger:     logger,
	}
}

// Model surfaces the wrapped provider's model id when it has one.
func (r *RetryProvider) Model() string {
	if m, ok := r.inner.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

// Complete calls the wrapped provider, retrying only on throttling errors.
func (r *RetryProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.pause(ctx, r.preDelay); err != nil {
		return "", err
	}

	raw, err := r.inner.Complete(ctx, prompt)
	if err == nil {
		return raw, nil
	}

	if !isThrottle(err) {
		return "", err
	}

	lastErr := err
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		delay := r.backoffDelay(attempt, lastErr)

		r.logger.Warn("llm throttled, retrying",
			"attempt", attempt,
			"max_retries", r.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		if err := r.pause(ctx, delay); err != nil {
			return "", err
		}

		raw, err = r.inner.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		if !isThrottle(err) {
			return "", err
		}
		lastErr = err
	}

	return "", lastErr
}

func (r *RetryProvider) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("llm call cancelled: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After duration from the provider takes precedence.
func (r *RetryProvider) backoffDelay(attempt int, err error) time.Duration {
	var provErr *model.ProviderError
	if errors.As(err, &provErr) && provErr.RetryAfter > 0 {
		return provErr.RetryAfter
	}

	delay := r.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isThrottle reports whether err is a provider-reported throttling error.
func isThrottle(err error) bool {
	var provErr *model.ProviderError
	return errors.As(err, &provErr) && provErr.Throttled()
}
