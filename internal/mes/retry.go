package mes

import "time"

// DefaultMaxRetries is the total number of retries allowed per request,
// shared between the auth-refresh path and transient network failures.
const DefaultMaxRetries = 2

// RetryDecision is the outcome of consulting the retry policy for a failed
// attempt.
type RetryDecision struct {
	Retry bool
	// Delay to wait before the next attempt
	Delay time.Duration
	// RefreshAuth indicates the token must be re-acquired before retrying
	RefreshAuth bool
}

// RetryPolicy decides, given the 1-based retry attempt and the error that
// failed it, whether and how to retry. Keeping it a pure function makes the
// policy testable without a transport.
type RetryPolicy func(attempt int, err error) RetryDecision

// DefaultRetryPolicy retries auth failures immediately after a token
// refresh and network failures with linear backoff (retry N waits N
// seconds), up to DefaultMaxRetries attempts. Any other error gives up.
func DefaultRetryPolicy(attempt int, err error) RetryDecision {
	if attempt > DefaultMaxRetries {
		return RetryDecision{}
	}
	if IsAuthError(err) {
		return RetryDecision{Retry: true, RefreshAuth: true}
	}
	if IsNetworkError(err) {
		return RetryDecision{Retry: true, Delay: time.Duration(attempt) * time.Second}
	}
	return RetryDecision{}
}
