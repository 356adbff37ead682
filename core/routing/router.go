package routing

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Ken-mbira/channels/core/channel"
	"github.com/Ken-mbira/channels/core/consumer"
	"github.com/Ken-mbira/channels/core/scope"
)

// route pairs a compiled pattern with the handler factory it instantiates.
type route struct {
	pattern *Pattern
	factory consumer.Factory
}

// URLRouter matches websocket connection paths to handler factories.
// Patterns are tried in registration order; the first match wins. The
// channel layer is threaded through explicitly — there is no package-level
// singleton — so its lifecycle stays owned by the caller.
type URLRouter struct {
	layer     channel.Layer
	routes    []route
	decorator scope.Decorator
	logger    *slog.Logger
	upgrader  *websocket.Upgrader
}

var _ http.Handler = (*URLRouter)(nil)

// NewURLRouter creates a websocket router backed by the given channel layer.
func NewURLRouter(layer channel.Layer, opts ...RouterOption) *URLRouter {
	if layer == nil {
		panic("routing: URLRouter requires a channel layer")
	}
	r := &URLRouter{
		layer:  layer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle registers a pattern and the factory producing a fresh handler per
// connection. Registration errors are programmer errors and panic, matching
// route registration elsewhere in the framework.
func (r *URLRouter) Handle(pattern string, factory consumer.Factory) {
	if factory == nil {
		panic(fmt.Errorf("%w on %q", ErrNilFactory, pattern))
	}
	p, err := CompilePattern(pattern)
	if err != nil {
		panic(err)
	}
	r.routes = append(r.routes, route{pattern: p, factory: factory})
}

// ServeHTTP matches the connection path, builds and decorates the scope, and
// runs the consumer state machine for the connection's lifetime. The upgrade
// itself happens only once the handler accepts.
func (r *URLRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var matched *route
	var params map[string]string
	for i := range r.routes {
		if p, ok := r.routes[i].pattern.Match(req.URL.Path); ok {
			matched = &r.routes[i]
			params = p
			break
		}
	}
	if matched == nil {
		r.logger.Debug("websocket route not found",
			slog.String("path", req.URL.Path), slog.Any("error", ErrRouteNotFound))
		http.NotFound(w, req)
		return
	}

	sc := scope.FromRequest(req, scope.ProtocolWebSocket, params)
	if r.decorator != nil {
		var err error
		if sc, err = r.decorator(req.Context(), sc); err != nil {
			r.logger.Warn("scope decoration rejected connection",
				slog.String("path", req.URL.Path), slog.Any("error", err))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	t := newWSTransport(r.upgrader, w, req)
	h := matched.factory()

	if err := consumer.Serve(req.Context(), h, t, sc, r.layer, consumer.WithLogger(r.logger)); err != nil {
		r.logger.Debug("connection ended with error",
			slog.String("path", req.URL.Path), slog.Any("error", err))
	}
}
