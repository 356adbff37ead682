// Package routing connects inbound connections to consumer handlers.
//
// ProtocolRouter is the outermost entry point: it classifies each request as
// a plain request/response or a long-lived websocket stream and forwards it
// to the application registered for that kind.
//
// URLRouter serves the websocket side. Routes are matched in registration
// order against patterns like "/ws/chat/{room}"; named segments are captured
// into the connection's scope. The first match instantiates a fresh handler
// via its factory and runs the consumer state machine for the connection's
// lifetime. No match rejects the connection with 404 before any upgrade.
//
// Typical wiring:
//
//	ws := routing.NewURLRouter(layer,
//	    routing.WithLogger(logger),
//	    routing.WithDecorators(authDecorator),
//	)
//	ws.Handle("/ws/chat/{room}", func() consumer.Handler { return &ChatHandler{} })
//
//	root := routing.NewProtocolRouter()
//	root.Handle(scope.ProtocolWebSocket, ws)
//	root.Handle(scope.ProtocolHTTP, httpMux)
//
//	http.ListenAndServe(addr, root)
package routing
