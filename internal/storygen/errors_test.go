package storygen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationError_KindsAreDistinguishable(t *testing.T) {
	cases := []struct {
		err       *GenerationError
		sentinel  error
		kind      Kind
		retryable bool
	}{
		{newAuthError("missing key"), ErrAuth, KindAuth, false},
		{newTransportError(503, "overloaded", errors.New("boom")), ErrTransport, KindTransport, true},
		{newEmptyResponseError(), ErrEmptyResponse, KindEmptyResponse, true},
		{newMalformedOutputError(errors.New("bad json")), ErrMalformedOutput, KindMalformedOutput, true},
	}

	all := []error{ErrAuth, ErrTransport, ErrEmptyResponse, ErrMalformedOutput}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			wrapped := fmt.Errorf("generate chapter 2: %w", tc.err)

			assert.Equal(t, tc.kind, KindOf(wrapped))
			assert.Equal(t, tc.retryable, IsRetryable(wrapped))
			for _, s := range all {
				assert.Equal(t, s == tc.sentinel, errors.Is(wrapped, s), "sentinel %v", s)
			}
		})
	}
}

func TestGenerationError_TransportCarriesStatusAndBody(t *testing.T) {
	cause := errors.New("error, status code: 429")
	err := newTransportError(429, `{"error":{"message":"Rate limit exceeded"}}`, cause)

	assert.Equal(t, 429, err.StatusCode)
	assert.Contains(t, err.Body, "Rate limit exceeded")
	assert.Contains(t, err.Error(), "status 429")
	assert.ErrorIs(t, err, cause)
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.False(t, IsRetryable(errors.New("other")))
	assert.Equal(t, "unknown", KindUnknown.String())
}
