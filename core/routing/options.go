package routing

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Ken-mbira/channels/core/scope"
)

// RouterOption configures a URLRouter.
type RouterOption func(*URLRouter)

// WithDecorators installs scope decorators, applied in order before any
// handler is constructed. This is the hook for the identity collaborator.
func WithDecorators(decorators ...scope.Decorator) RouterOption {
	return func(r *URLRouter) {
		r.decorator = scope.Chain(decorators...)
	}
}

// WithRouterLogger configures structured logging for routing and connection
// lifecycles.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *URLRouter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReadBuffer sets the websocket read buffer size.
func WithReadBuffer(size int) RouterOption {
	return func(r *URLRouter) {
		r.upgrader.ReadBufferSize = size
	}
}

// WithWriteBuffer sets the websocket write buffer size.
func WithWriteBuffer(size int) RouterOption {
	return func(r *URLRouter) {
		r.upgrader.WriteBufferSize = size
	}
}

// WithHandshakeTimeout bounds the websocket handshake.
func WithHandshakeTimeout(timeout time.Duration) RouterOption {
	return func(r *URLRouter) {
		r.upgrader.HandshakeTimeout = timeout
	}
}

// WithOriginCheck sets the origin policy for upgrades.
func WithOriginCheck(fn func(r *http.Request) bool) RouterOption {
	return func(r *URLRouter) {
		r.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin disables origin checking. Intended for development.
func WithAllowAnyOrigin() RouterOption {
	return func(r *URLRouter) {
		r.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// WithSubprotocols advertises the supported websocket subprotocols.
func WithSubprotocols(protocols ...string) RouterOption {
	return func(r *URLRouter) {
		r.upgrader.Subprotocols = protocols
	}
}
