package mes

import (
	"errors"
	"fmt"
	"strings"
)

// authSubCodeMarkers are substrings of business sub-codes that indicate an
// authentication problem even when the HTTP status is 200. Matching any of
// them routes the error through the token refresh path.
var authSubCodeMarkers = []string{"TOKEN", "AUTH", "APP_KEY", "NOT_EXIST"}

// AuthError indicates the backend rejected our credentials: a 401/403 status
// or an auth-flavored business sub-code. It is retryable once after a token
// refresh.
type AuthError struct {
	Status  int
	SubCode string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication rejected: %s", e.Message)
	}
	return fmt.Sprintf("authentication rejected: status %d", e.Status)
}

// BusinessError indicates the backend answered but reported a non-success
// application code. It carries the server-provided message and is never
// retried.
type BusinessError struct {
	Code    int
	SubCode string
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("business error (code: %d, subCode: %s)", e.Code, e.SubCode)
}

// NetworkError wraps a transport-level failure (connection refused, DNS,
// timeout). These are retried with linear backoff.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsBusinessError reports whether err is a non-success application code.
func IsBusinessError(err error) bool {
	var bizErr *BusinessError
	return errors.As(err, &bizErr)
}

// isAuthSubCode reports whether a business sub-code looks auth-related
func isAuthSubCode(subCode string) bool {
	for _, marker := range authSubCodeMarkers {
		if strings.Contains(subCode, marker) {
			return true
		}
	}
	return false
}
