package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_StripsSentinelPrefix(t *testing.T) {
	err := fmt.Errorf("%w: username too short", ErrValidation)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "username too short", Message(err, ErrValidation))
}

func TestMessage_NoPrefix(t *testing.T) {
	assert.Equal(t, "boom", Message(errors.New("boom"), ErrValidation))
	assert.Equal(t, "", Message(nil, ErrValidation))
	assert.Equal(t, "validation error", Message(ErrValidation, ErrValidation))
}

func TestIsDifficulty(t *testing.T) {
	for _, d := range []string{"easy", "medium", "hard", "master"} {
		assert.True(t, IsDifficulty(d), d)
	}
	assert.False(t, IsDifficulty("insane"))
	assert.False(t, IsDifficulty(""))
}
