package mes

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyAuthFailure(t *testing.T) {
	err := &AuthError{Status: 401}

	decision := DefaultRetryPolicy(1, err)

	assert.True(t, decision.Retry)
	assert.True(t, decision.RefreshAuth)
	assert.Equal(t, time.Duration(0), decision.Delay)
}

func TestRetryPolicyNetworkBackoffIsLinear(t *testing.T) {
	err := &NetworkError{Err: errors.New("connection refused")}

	first := DefaultRetryPolicy(1, err)
	second := DefaultRetryPolicy(2, err)

	assert.True(t, first.Retry)
	assert.Equal(t, 1*time.Second, first.Delay)
	assert.False(t, first.RefreshAuth)

	assert.True(t, second.Retry)
	assert.Equal(t, 2*time.Second, second.Delay)
}

func TestRetryPolicyGivesUpPastMaxRetries(t *testing.T) {
	err := &NetworkError{Err: errors.New("timeout")}

	decision := DefaultRetryPolicy(DefaultMaxRetries+1, err)

	assert.False(t, decision.Retry)
}

func TestRetryPolicyDoesNotRetryOtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"business error", &BusinessError{Code: 500, Message: "boom"}},
		{"plain error", errors.New("something else")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := DefaultRetryPolicy(1, tt.err)
			assert.False(t, decision.Retry)
		})
	}
}
