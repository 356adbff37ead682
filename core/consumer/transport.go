package consumer

import "context"

// Close codes passed to Transport.Close, numerically aligned with RFC 6455.
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

// Transport abstracts the live bidirectional connection so the state machine
// is independent of the wire technology. The websocket implementation lives
// in core/routing; tests use in-memory fakes.
//
// Accept completes the protocol handshake; until it is called, ReadMessage
// and WriteMessage fail with ErrNotAccepted and Close rejects the connection
// at the transport boundary. Close must be idempotent and must unblock a
// concurrent ReadMessage.
type Transport interface {
	Accept() error
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close(code int, reason string) error
}
