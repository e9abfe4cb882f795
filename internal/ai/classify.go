package ai

import (
	"context"
	"errors"
	"net"
	"strings"
)

// quotaSignatures are matched against the lowercased error text.
var quotaSignatures = []string{"429", "quota", "limit", "exceeded", "rate_limit"}

// Classify tags a failed attempt. Timeouts are always transient, even though
// "deadline exceeded" would otherwise match a quota signature.
func Classify(err error) FailureKind {
	if err == nil || isTimeout(err) {
		return FailureTransient
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == 429 {
		return FailureQuota
	}

	errStr := strings.ToLower(err.Error())
	for _, sig := range quotaSignatures {
		if strings.Contains(errStr, sig) {
			return FailureQuota
		}
	}
	return FailureTransient
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// IsTimeout reports whether err came from an attempt or call running out of time.
func IsTimeout(err error) bool { return isTimeout(err) }
