package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ken-mbira/channels/core/channel"
	"github.com/Ken-mbira/channels/core/consumer"
	"github.com/Ken-mbira/channels/core/scope"
)

// fakeTransport is an in-memory consumer.Transport. Inbound frames are fed
// through the inbound channel; written frames land on outbound.
type fakeTransport struct {
	inbound  chan []byte
	outbound chan []byte
	done     chan struct{}

	mu        sync.Mutex
	accepted  bool
	closed    bool
	closeCode int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound:  make(chan []byte, 16),
		outbound: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

func (t *fakeTransport) Accept() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("transport closed")
	}
	t.accepted = true
	return nil
}

func (t *fakeTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case data := <-t.inbound:
		return data, nil
	case <-t.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) WriteMessage(ctx context.Context, data []byte) error {
	select {
	case t.outbound <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *fakeTransport) Close(code int, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.closeCode = code
	close(t.done)
	return nil
}

func (t *fakeTransport) isAccepted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accepted
}

func (t *fakeTransport) closedWith() (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed, t.closeCode
}

func (t *fakeTransport) expectFrame(tb testing.TB) []byte {
	tb.Helper()
	select {
	case data := <-t.outbound:
		return data
	case <-time.After(time.Second):
		tb.Fatal("timeout waiting for outbound frame")
		return nil
	}
}

// recordingLayer wraps a Layer to observe the cleanup calls Serve makes.
type recordingLayer struct {
	channel.Layer

	mu       sync.Mutex
	discards []string
	closed   []string
}

func (r *recordingLayer) GroupDiscard(ctx context.Context, group, name string) error {
	r.mu.Lock()
	r.discards = append(r.discards, group)
	r.mu.Unlock()
	return r.Layer.GroupDiscard(ctx, group, name)
}

func (r *recordingLayer) CloseChannel(name string) {
	r.mu.Lock()
	r.closed = append(r.closed, name)
	r.mu.Unlock()
	r.Layer.CloseChannel(name)
}

func (r *recordingLayer) discarded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.discards...)
}

// testHandler is a consumer.Handler assembled from optional funcs.
type testHandler struct {
	connect    func(c *consumer.Context) error
	receive    func(c *consumer.Context, data []byte) error
	disconnect func(c *consumer.Context)
	events     map[string]consumer.EventFunc
}

func (h *testHandler) Connect(c *consumer.Context) error {
	if h.connect != nil {
		return h.connect(c)
	}
	return c.Accept()
}

func (h *testHandler) Receive(c *consumer.Context, data []byte) error {
	if h.receive != nil {
		return h.receive(c, data)
	}
	return nil
}

func (h *testHandler) Disconnect(c *consumer.Context) {
	if h.disconnect != nil {
		h.disconnect(c)
	}
}

func (h *testHandler) Events() map[string]consumer.EventFunc {
	return h.events
}

// chatTestHandler mimics the room-chat application: joins a fixed group on
// connect, fans inbound {"message": ...} payloads out, and relays
// chat.message events back to the wire.
func chatTestHandler(group string) *testHandler {
	return &testHandler{
		connect: func(c *consumer.Context) error {
			if err := c.GroupAdd(group); err != nil {
				return err
			}
			return c.Accept()
		},
		receive: func(c *consumer.Context, data []byte) error {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("malformed payload: %w", err)
			}
			return c.GroupSend(group, channel.Message{
				Type:    "chat.message",
				Payload: map[string]any{"message": in.Message},
			})
		},
		events: map[string]consumer.EventFunc{
			"chat.message": func(c *consumer.Context, msg channel.Message) error {
				return c.SendJSON(map[string]string{"message": msg.GetString("message")})
			},
		},
	}
}

func testScope() *scope.Scope {
	return &scope.Scope{Protocol: scope.ProtocolWebSocket, Path: "/ws/test"}
}

// startServe runs Serve in the background and returns its result channel.
func startServe(ctx context.Context, h consumer.Handler, t consumer.Transport, layer channel.Layer) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Serve(ctx, h, t, testScope(), layer)
	}()
	return errCh
}

func waitServe(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestServe_EndToEndRelay(t *testing.T) {
	t.Parallel()

	layer := channel.NewInMemoryLayer()
	defer layer.Close()
	ctx := context.Background()

	t1, t2 := newFakeTransport(), newFakeTransport()
	done1 := startServe(ctx, chatTestHandler("chat_lobby"), t1, layer)
	done2 := startServe(ctx, chatTestHandler("chat_lobby"), t2, layer)

	require.Eventually(t, func() bool { return t1.isAccepted() && t2.isAccepted() },
		time.Second, 5*time.Millisecond)

	t1.inbound <- []byte(`{"message":"hello"}`)

	assert.JSONEq(t, `{"message":"hello"}`, string(t1.expectFrame(t)))
	assert.JSONEq(t, `{"message":"hello"}`, string(t2.expectFrame(t)))

	_ = t1.Close(consumer.CloseNormal, "")
	_ = t2.Close(consumer.CloseNormal, "")
	assert.NoError(t, waitServe(t, done1))
	assert.NoError(t, waitServe(t, done2))
}

func TestServe_Rejection(t *testing.T) {
	t.Parallel()

	t.Run("connect without accept rejects and cleans pre-accept joins", func(t *testing.T) {
		t.Parallel()

		base := channel.NewInMemoryLayer()
		defer base.Close()
		layer := &recordingLayer{Layer: base}
		tr := newFakeTransport()

		var name string
		h := &testHandler{
			connect: func(c *consumer.Context) error {
				name = c.Channel()
				// Join before deciding, then never accept.
				return c.GroupAdd("chat.room1")
			},
		}

		err := consumer.Serve(context.Background(), h, tr, testScope(), layer)
		assert.ErrorIs(t, err, consumer.ErrConnectionRejected)

		closed, code := tr.closedWith()
		assert.True(t, closed)
		assert.Equal(t, consumer.ClosePolicyViolation, code)

		assert.Contains(t, layer.discarded(), "chat.room1")
		_, err = base.Receive(context.Background(), name)
		assert.ErrorIs(t, err, channel.ErrChannelClosed)
	})

	t.Run("connect error rejects", func(t *testing.T) {
		t.Parallel()

		layer := channel.NewInMemoryLayer()
		defer layer.Close()
		tr := newFakeTransport()

		h := &testHandler{
			connect: func(c *consumer.Context) error { return errors.New("not allowed") },
		}

		err := consumer.Serve(context.Background(), h, tr, testScope(), layer)
		assert.ErrorIs(t, err, consumer.ErrConnectionRejected)
	})

	t.Run("connect panic rejects with internal error close", func(t *testing.T) {
		t.Parallel()

		layer := channel.NewInMemoryLayer()
		defer layer.Close()
		tr := newFakeTransport()

		h := &testHandler{
			connect: func(c *consumer.Context) error { panic("boom") },
		}

		err := consumer.Serve(context.Background(), h, tr, testScope(), layer)
		assert.ErrorIs(t, err, consumer.ErrConnectionRejected)

		closed, code := tr.closedWith()
		assert.True(t, closed)
		assert.Equal(t, consumer.CloseInternalError, code)
	})
}

func TestServe_CleanupOnDisconnect(t *testing.T) {
	t.Parallel()

	base := channel.NewInMemoryLayer()
	defer base.Close()
	layer := &recordingLayer{Layer: base}
	tr := newFakeTransport()

	var name string
	disconnected := make(chan struct{})
	h := &testHandler{
		connect: func(c *consumer.Context) error {
			name = c.Channel()
			if err := c.GroupAdd("g1"); err != nil {
				return err
			}
			if err := c.GroupAdd("g2"); err != nil {
				return err
			}
			return c.Accept()
		},
		disconnect: func(c *consumer.Context) { close(disconnected) },
	}

	done := startServe(context.Background(), h, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	// Peer goes away.
	_ = tr.Close(consumer.CloseNormal, "")
	require.NoError(t, waitServe(t, done))

	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("disconnect hook did not run")
	}

	assert.ElementsMatch(t, []string{"g1", "g2"}, layer.discarded())

	// Fan-out after disconnect must not reach the dead handler's channel.
	require.NoError(t, base.GroupSend(context.Background(), "g1", channel.Message{Type: "x"}))
	_, err := base.Receive(context.Background(), name)
	assert.ErrorIs(t, err, channel.ErrChannelClosed)
}

func TestServe_MalformedPayloadKeepsConnection(t *testing.T) {
	t.Parallel()

	layer := channel.NewInMemoryLayer()
	defer layer.Close()
	tr := newFakeTransport()

	h := chatTestHandler("chat.resilient")
	done := startServe(context.Background(), h, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	tr.inbound <- []byte(`not json at all`)
	tr.inbound <- []byte(`{"message":"still here"}`)

	assert.JSONEq(t, `{"message":"still here"}`, string(tr.expectFrame(t)))

	_ = tr.Close(consumer.CloseNormal, "")
	assert.NoError(t, waitServe(t, done))
}

func TestServe_UnknownEventTypeIsSkipped(t *testing.T) {
	t.Parallel()

	layer := channel.NewInMemoryLayer()
	defer layer.Close()
	tr := newFakeTransport()

	var name string
	h := chatTestHandler("chat.unknown")
	connect := h.connect
	h.connect = func(c *consumer.Context) error {
		name = c.Channel()
		return connect(c)
	}

	done := startServe(context.Background(), h, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, layer.Send(ctx, name, channel.Message{Type: "no.such.hook"}))
	require.NoError(t, layer.Send(ctx, name, channel.Message{
		Type:    "chat.message",
		Payload: map[string]any{"message": "after"},
	}))

	assert.JSONEq(t, `{"message":"after"}`, string(tr.expectFrame(t)))

	_ = tr.Close(consumer.CloseNormal, "")
	assert.NoError(t, waitServe(t, done))
}

func TestServe_ReceivePanicClosesConnection(t *testing.T) {
	t.Parallel()

	base := channel.NewInMemoryLayer()
	defer base.Close()
	layer := &recordingLayer{Layer: base}
	tr := newFakeTransport()

	h := &testHandler{
		connect: func(c *consumer.Context) error {
			if err := c.GroupAdd("chat.doomed"); err != nil {
				return err
			}
			return c.Accept()
		},
		receive: func(c *consumer.Context, data []byte) error { panic("application bug") },
	}

	done := startServe(context.Background(), h, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	tr.inbound <- []byte(`anything`)

	assert.NoError(t, waitServe(t, done))
	closed, _ := tr.closedWith()
	assert.True(t, closed)
	assert.Contains(t, layer.discarded(), "chat.doomed")
}

func TestServe_CloseFromHook(t *testing.T) {
	t.Parallel()

	layer := channel.NewInMemoryLayer()
	defer layer.Close()
	tr := newFakeTransport()

	h := &testHandler{
		receive: func(c *consumer.Context, data []byte) error {
			c.Close()
			return nil
		},
	}

	done := startServe(context.Background(), h, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	tr.inbound <- []byte(`bye`)
	assert.NoError(t, waitServe(t, done))
}

func TestServe_ContextCancellation(t *testing.T) {
	t.Parallel()

	layer := channel.NewInMemoryLayer()
	defer layer.Close()
	tr := newFakeTransport()

	ctx, cancel := context.WithCancel(context.Background())
	done := startServe(ctx, &testHandler{}, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, waitServe(t, done))

	closed, _ := tr.closedWith()
	assert.True(t, closed)
}

func TestContext_Accept(t *testing.T) {
	t.Parallel()

	layer := channel.NewInMemoryLayer()
	defer layer.Close()
	tr := newFakeTransport()

	var second error
	h := &testHandler{
		connect: func(c *consumer.Context) error {
			if err := c.Accept(); err != nil {
				return err
			}
			second = c.Accept()
			return nil
		},
	}

	done := startServe(context.Background(), h, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, second, consumer.ErrAlreadyAccepted)

	_ = tr.Close(consumer.CloseNormal, "")
	assert.NoError(t, waitServe(t, done))
}

func TestContext_SendBeforeAccept(t *testing.T) {
	t.Parallel()

	layer := channel.NewInMemoryLayer()
	defer layer.Close()
	tr := newFakeTransport()

	var sendErr error
	h := &testHandler{
		connect: func(c *consumer.Context) error {
			sendErr = c.Send([]byte("too early"))
			return c.Accept()
		},
	}

	done := startServe(context.Background(), h, tr, layer)
	require.Eventually(t, tr.isAccepted, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, sendErr, consumer.ErrNotAccepted)

	_ = tr.Close(consumer.CloseNormal, "")
	assert.NoError(t, waitServe(t, done))
}
