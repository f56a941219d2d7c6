package kverrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindInvalidKey, "get", "key must not be empty", nil)
	assert.Equal(t, "kvs: get: invalid_key: key must not be empty", err.Error())
}

func TestErrorMessageNoOp(t *testing.T) {
	err := New(KindInvalidKey, "", "key must not be empty", nil)
	assert.Equal(t, "kvs: invalid_key: key must not be empty", err.Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(KindStoreConnection, "setup", "failed to connect", cause, nil)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestHasKind(t *testing.T) {
	err := New(KindBulkheadFull, "put", "too many concurrent operations", nil)
	assert.True(t, HasKind(err, KindBulkheadFull))
	assert.False(t, HasKind(err, KindCircuitOpen))
}

func TestHasKindWrapped(t *testing.T) {
	inner := New(KindTimeout, "get", "deadline exceeded", nil)
	outer := errors.New("wrapper failed")
	_ = outer

	wrapped := Wrap(KindTimeout, "get", "deadline exceeded", inner, nil)
	assert.True(t, HasKind(wrapped, KindTimeout))
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := New(KindInvalidTTL, "put", "bad ttl", nil)
	b := New(KindInvalidTTL, "put_many", "different message, same kind", nil)
	c := New(KindMissingKey, "put", "bad ttl", nil)

	require.True(t, errors.Is(a, b))
	require.False(t, errors.Is(a, c))
}
