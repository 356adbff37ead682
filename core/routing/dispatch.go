package routing

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Ken-mbira/channels/core/scope"
)

// ProtocolRouter is the outermost entry point. It classifies each inbound
// connection by kind — long-lived websocket stream or plain request/response
// — and forwards it to the application registered for that kind. A kind with
// no registered application is rejected at the transport boundary.
type ProtocolRouter struct {
	apps   map[string]http.Handler
	logger *slog.Logger
}

var _ http.Handler = (*ProtocolRouter)(nil)

// ProtocolOption configures a ProtocolRouter.
type ProtocolOption func(*ProtocolRouter)

// WithProtocolLogger configures structured logging for dispatch decisions.
func WithProtocolLogger(logger *slog.Logger) ProtocolOption {
	return func(p *ProtocolRouter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProtocolRouter creates an empty dispatcher. Register applications with
// Handle using the scope.Protocol* constants.
func NewProtocolRouter(opts ...ProtocolOption) *ProtocolRouter {
	p := &ProtocolRouter{
		apps:   make(map[string]http.Handler),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle registers the application serving the given protocol kind.
func (p *ProtocolRouter) Handle(protocol string, h http.Handler) {
	if h == nil {
		panic("routing: nil application for protocol " + protocol)
	}
	p.apps[protocol] = h
}

// ServeHTTP classifies the request and delegates.
func (p *ProtocolRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := scope.ProtocolHTTP
	if websocket.IsWebSocketUpgrade(r) {
		kind = scope.ProtocolWebSocket
	}

	app, ok := p.apps[kind]
	if !ok {
		p.logger.Warn("no application for protocol",
			slog.String("protocol", kind), slog.String("path", r.URL.Path))
		http.Error(w, "protocol not supported", http.StatusNotFound)
		return
	}
	app.ServeHTTP(w, r)
}
