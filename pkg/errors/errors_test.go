package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesTypeAndStack(t *testing.T) {
	err := New(ErrorTypeConnection, "refused")

	assert.Equal(t, ErrorTypeConnection, err.Type)
	assert.Equal(t, "connection: refused", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := Wrap(cause, ErrorTypeConnection, "could not connect")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "could not connect")
	assert.Contains(t, err.Error(), "dial tcp: refused")

	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "ignored"))
}

func TestWrapKeepsOriginalStack(t *testing.T) {
	inner := New(ErrorTypeTimeout, "deadline")
	outer := Wrap(inner, ErrorTypeHealth, "health check failed")

	assert.Equal(t, ErrorTypeHealth, outer.Type)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, IsType(outer, ErrorTypeHealth))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrorTypeConnection, "x")))
	assert.True(t, IsRetryable(New(ErrorTypeTimeout, "x")))
	assert.True(t, IsRetryable(New(ErrorTypeRateLimit, "x")))

	assert.False(t, IsRetryable(New(ErrorTypeValidation, "x")))
	assert.False(t, IsRetryable(New(ErrorTypeHTTP, "x")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(nil))

	// retryability survives wrapping in a retryable type
	wrapped := Wrap(New(ErrorTypeConnection, "x"), ErrorTypeConnection, "outer")
	assert.True(t, IsRetryable(wrapped))
}

func TestDetails(t *testing.T) {
	err := New(ErrorTypeHTTP, "bad response").
		WithDetail("status_code", 500).
		WithDetail("body", "boom")

	code, ok := err.Detail("status_code")
	require.True(t, ok)
	assert.Equal(t, 500, code)

	_, ok = err.Detail("missing")
	assert.False(t, ok)
}

func TestDetailInWalksChain(t *testing.T) {
	inner := New(ErrorTypeConnection, "refused").WithDetail("hint", "start the service")
	outer := Wrap(inner, ErrorTypeHealth, "health check failed")

	hint, ok := DetailIn(outer, "hint")
	require.True(t, ok)
	assert.Equal(t, "start the service", hint)

	_, ok = DetailIn(outer, "absent")
	assert.False(t, ok)
	_, ok = DetailIn(fmt.Errorf("plain"), "hint")
	assert.False(t, ok)
	_, ok = DetailIn(nil, "hint")
	assert.False(t, ok)
}

func TestAs(t *testing.T) {
	structured, ok := As(Wrap(fmt.Errorf("io"), ErrorTypeData, "parse"))
	require.True(t, ok)
	assert.Equal(t, ErrorTypeData, structured.Type)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}
