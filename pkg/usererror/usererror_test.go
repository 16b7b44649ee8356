package usererror

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestMessageSurvivesWrapping(t *testing.T) {
	base := New("Validation failed")
	wrapped := errors.Wrap(base, "update ldap")

	assert.True(t, Is(wrapped))
	assert.Equal(t, "Validation failed", Message(wrapped))
}

func TestInternalErrorsHaveNoMessage(t *testing.T) {
	err := errors.New("pq: connection refused")
	assert.False(t, Is(err))
	assert.Empty(t, Message(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, "Failed to import bank holidays")
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Failed to import bank holidays", Message(err))
	assert.Nil(t, Wrap(nil, "x"))
}
