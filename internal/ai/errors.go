package ai

import (
	"errors"
	"fmt"
)

// ErrNoProviders is returned when no provider credential is configured. No
// network call is made in that case.
var ErrNoProviders = errors.New("no API keys configured for LLM providers")

// FailureKind tags a failed attempt for logs and metrics. It never changes
// which provider is tried next.
type FailureKind string

const (
	FailureTransient FailureKind = "transient"
	FailureQuota     FailureKind = "quota-exceeded"
)

// HTTPError represents a non-2xx status from a provider.
type HTTPError struct {
	StatusCode int
	Body       string
	Provider   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.Provider, e.Body)
}

// AttemptError records why a single provider attempt failed.
type AttemptError struct {
	Provider string
	Kind     FailureKind
	Timeout  bool
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s attempt failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }
