package curation

import (
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateContent marks a candidate whose bytes or URLs were already
// used in this project. Not a failure, a normal filtering outcome.
var ErrDuplicateContent = errors.New("duplicate content")

// ErrAcquisitionExhausted means no provider yielded any valid unique
// candidate after the configured retries. Triggers fallback generation,
// never propagates to the pipeline as a hard failure.
var ErrAcquisitionExhausted = errors.New("acquisition exhausted")

// RateLimitExceededError is returned when a provider's window budget is
// already spent. Callers decide whether to wait out RetryAfter or switch
// providers.
type RateLimitExceededError struct {
	Provider   Provider
	RetryAfter time.Duration
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Provider, e.RetryAfter)
}

// ProviderError wraps a transport/auth/5xx failure from one provider so
// the caller can distinguish "provider broken" from "no content".
type ProviderError struct {
	Provider Provider
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// ValidationError marks downloaded bytes that failed the acquisition
// gate (too small, wrong format, etc). Recoverable by trying the next
// scored candidate.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.URL, e.Reason)
}
