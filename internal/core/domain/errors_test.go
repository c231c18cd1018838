package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NewError(KindValidationFailed, "email is required")

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.NotErrorIs(t, err, ErrDuplicateIdentity)
	assert.Equal(t, "email is required", err.Error())
}

func TestError_WrappedCauseStaysOutOfMessage(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := WrapError(KindStorage, "storage unavailable", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestError_NestedKindsRemainReachable(t *testing.T) {
	inner := WrapError(KindTokenExpired, "session token has expired", errors.New("exp"))
	outer := WrapError(KindUnauthenticated, "authentication required", inner)

	assert.ErrorIs(t, outer, ErrUnauthenticated)
	assert.ErrorIs(t, outer, ErrTokenExpired)
	assert.Equal(t, KindUnauthenticated, KindOf(outer))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidCredentials, KindOf(fmt.Errorf("login: %w", ErrInvalidCredentials)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "user not found", PublicMessage(ErrIdentityNotFound))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("mongo: socket closed")))
}
