package model

import (
	"fmt"
	"time"
)

// ProviderError wraps an LLM provider HTTP failure so retry logic can tell
// throttling apart from hard errors.
type ProviderError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider HTTP %d", e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Throttled reports whether the provider rejected the call for rate reasons.
func (e *ProviderError) Throttled() bool {
	return e.StatusCode == 429
}
