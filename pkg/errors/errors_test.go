package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CarriesTypeAndStack(t *testing.T) {
	err := New(ErrorTypeConfig, "missing dataset id")

	assert.Equal(t, "config: missing dataset id", err.Error())
	assert.Equal(t, ErrorTypeConfig, TypeOf(err))
	assert.NotEmpty(t, err.Stack)
}

func TestWrap_PreservesCauseAndInnerStack(t *testing.T) {
	inner := New(ErrorTypeQuery, "bad field")
	wrapped := Wrap(inner, ErrorTypeData, "extraction failed")

	assert.ErrorIs(t, wrapped, inner)
	assert.Equal(t, ErrorTypeData, TypeOf(wrapped))
	assert.Equal(t, inner.Stack[0], wrapped.Stack[0])

	assert.Nil(t, Wrap(nil, ErrorTypeData, "ignored"))
}

func TestWrap_PlainError(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("disk full"), ErrorTypeConnection, "write failed")

	require.NotNil(t, wrapped)
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.True(t, IsType(wrapped, ErrorTypeConnection))
	assert.NotEmpty(t, wrapped.Stack)
}

func TestTypeOf_PlainErrorIsUnknown(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(fmt.Errorf("plain")))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeUnknown))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeConnection, true},
		{ErrorTypeConfig, false},
		{ErrorTypeAuthentication, false},
		{ErrorTypeQuery, false},
		{ErrorTypeData, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(New(tt.errType, "x")))
		})
	}
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeRateLimit, "slow down").WithDetail("http_status", 429)
	assert.Equal(t, 429, err.Details["http_status"])
}
