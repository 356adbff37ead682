package routing

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ken-mbira/channels/core/consumer"
)

// closeWriteTimeout bounds the close-frame write during teardown.
const closeWriteTimeout = 5 * time.Second

// wsTransport adapts a pending websocket upgrade to consumer.Transport. The
// actual upgrade is deferred until Accept so the connect hook can reject the
// connection at the HTTP boundary instead of after a completed handshake.
type wsTransport struct {
	upgrader *websocket.Upgrader
	w        http.ResponseWriter
	r        *http.Request

	mu     sync.Mutex // guards conn, closed
	conn   *websocket.Conn
	closed bool

	wmu sync.Mutex // serializes frame writes; gorilla allows one writer
}

var _ consumer.Transport = (*wsTransport)(nil)

func newWSTransport(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request) *wsTransport {
	return &wsTransport{upgrader: upgrader, w: w, r: r}
}

// Accept completes the websocket handshake.
func (t *wsTransport) Accept() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return consumer.ErrNotAccepted
	}
	if t.conn != nil {
		return consumer.ErrAlreadyAccepted
	}

	conn, err := t.upgrader.Upgrade(t.w, t.r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		t.closed = true
		return err
	}
	t.conn = conn
	return nil
}

// ReadMessage returns the next inbound frame payload. It blocks until a
// frame arrives or the transport is closed; Close is what unblocks it.
func (t *wsTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil, consumer.ErrNotAccepted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, data, err := conn.ReadMessage()
	return data, err
}

// WriteMessage writes one text frame to the peer.
func (t *wsTransport) WriteMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.mu.Unlock()

	if conn == nil || closed {
		return consumer.ErrNotAccepted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.wmu.Lock()
	defer t.wmu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close is idempotent. Before Accept it rejects the pending upgrade with
// 403; after Accept it sends a close frame and tears the connection down,
// unblocking any pending read.
func (t *wsTransport) Close(code int, reason string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		http.Error(t.w, "Forbidden", http.StatusForbidden)
		return nil
	}

	t.wmu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(closeWriteTimeout))
	t.wmu.Unlock()

	return conn.Close()
}
