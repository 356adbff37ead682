package channel_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ken-mbira/channels/core/channel"
)

func TestValidGroupName(t *testing.T) {
	t.Parallel()

	valid := []string{
		"chat.lobby",
		"chat_lobby",
		"room-42",
		"A.b-C_d.9",
		strings.Repeat("x", channel.MaxNameLength),
	}
	for _, name := range valid {
		assert.True(t, channel.ValidGroupName(name), "expected %q to be valid", name)
	}

	invalid := []string{
		"",
		"chat room", // space
		"chat/lobby",
		"chat!lobby",
		"комната",
		strings.Repeat("x", channel.MaxNameLength+1),
	}
	for _, name := range invalid {
		assert.False(t, channel.ValidGroupName(name), "expected %q to be invalid", name)
	}
}

func TestValidateGroupName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, channel.ValidateGroupName("chat.lobby"))

	err := channel.ValidateGroupName("chat lobby")
	assert.ErrorIs(t, err, channel.ErrInvalidGroupName)
	assert.Contains(t, err.Error(), "chat lobby")
}
