package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ken-mbira/channels/core/routing"
)

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	t.Run("compiles literals and params", func(t *testing.T) {
		t.Parallel()

		p, err := routing.CompilePattern("/ws/chat/{room}")
		require.NoError(t, err)
		assert.Equal(t, "/ws/chat/{room}", p.String())
	})

	t.Run("rejects missing leading slash", func(t *testing.T) {
		t.Parallel()

		_, err := routing.CompilePattern("ws/chat")
		assert.ErrorIs(t, err, routing.ErrInvalidPattern)
	})

	t.Run("rejects empty parameter name", func(t *testing.T) {
		t.Parallel()

		_, err := routing.CompilePattern("/ws/{}")
		assert.ErrorIs(t, err, routing.ErrInvalidPattern)
	})

	t.Run("rejects duplicate parameter names", func(t *testing.T) {
		t.Parallel()

		_, err := routing.CompilePattern("/{a}/{a}")
		assert.ErrorIs(t, err, routing.ErrInvalidPattern)
	})

	t.Run("rejects partial-segment braces", func(t *testing.T) {
		t.Parallel()

		_, err := routing.CompilePattern("/ws/pre{room}")
		assert.ErrorIs(t, err, routing.ErrInvalidPattern)
	})
}

func TestPatternMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		params  map[string]string
		ok      bool
	}{
		{"/ws/chat/{room}", "/ws/chat/lobby", map[string]string{"room": "lobby"}, true},
		{"/ws/chat/{room}", "/ws/chat/lobby/", map[string]string{"room": "lobby"}, true},
		{"/ws/chat/{room}", "/ws/chat", nil, false},
		{"/ws/chat/{room}", "/ws/chat/a/b", nil, false},
		{"/ws/chat/{room}", "/ws/other/lobby", nil, false},
		{"/ws/{kind}/{id}", "/ws/chat/42", map[string]string{"kind": "chat", "id": "42"}, true},
		{"/", "/", nil, true},
		{"/", "/x", nil, false},
	}

	for _, tt := range tests {
		p, err := routing.CompilePattern(tt.pattern)
		require.NoError(t, err)

		params, ok := p.Match(tt.path)
		assert.Equal(t, tt.ok, ok, "pattern %s vs path %s", tt.pattern, tt.path)
		if tt.ok {
			assert.Equal(t, tt.params, params)
		}
	}
}
