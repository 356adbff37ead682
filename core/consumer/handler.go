package consumer

import "github.com/Ken-mbira/channels/core/channel"

// EventFunc handles one channel-layer event delivered to the handler's
// channel. The event was dispatched here because its Type matched this
// function's key in the handler's Events table.
type EventFunc func(c *Context, msg channel.Message) error

// Handler is the application-facing contract for a connection. One instance
// serves exactly one connection; instances are never reused.
//
// Connect runs exactly once when the connection is established. It may read
// scope parameters and join groups, and it must call c.Accept() for the
// connection to open — returning without accepting rejects the connection.
// Accepting last avoids a window where group membership exists before the
// transport has confirmed the connection.
//
// Receive runs for each inbound wire message. A returned error is logged and
// the connection keeps serving, so malformed payloads never kill the
// connection; panic to signal an unrecoverable application bug.
//
// Disconnect runs once during teardown, after group membership has been
// released and the channel destroyed. It also runs for rejected connections.
//
// Events returns the event-type dispatch table. It is read once before the
// connection opens; later mutation of the returned map has no effect.
type Handler interface {
	Connect(c *Context) error
	Receive(c *Context, data []byte) error
	Disconnect(c *Context)
	Events() map[string]EventFunc
}

// Factory produces a fresh Handler per accepted connection.
type Factory func() Handler
