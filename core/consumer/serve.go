package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/Ken-mbira/channels/core/channel"
	"github.com/Ken-mbira/channels/core/scope"
)

// channelPrefix tags generated channel names with the connection kind.
const channelPrefix = "websocket"

type serveConfig struct {
	logger *slog.Logger
}

// ServeOption configures a single Serve call.
type ServeOption func(*serveConfig)

// WithLogger configures structured logging for the connection's lifecycle.
func WithLogger(logger *slog.Logger) ServeOption {
	return func(cfg *serveConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Serve runs the connection state machine until the connection ends. It
// blocks for the connection's lifetime and is intended to be called from the
// per-connection task the transport layer already runs (for HTTP-based
// transports, the request handler goroutine).
//
// Cleanup is unconditional: whatever ends the connection — peer close, hook
// panic, context cancellation — the channel is destroyed and discarded from
// every group the handler joined.
//
// The returned error reports setup failures and rejection
// (ErrConnectionRejected); I/O errors after a successful open are logged,
// not returned, since the peer is already gone.
func Serve(ctx context.Context, h Handler, t Transport, sc *scope.Scope, layer channel.Layer, opts ...ServeOption) error {
	cfg := serveConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	name, err := layer.NewChannel(runCtx, channelPrefix)
	if err != nil {
		_ = t.Close(CloseInternalError, "channel registration failed")
		return fmt.Errorf("register channel: %w", err)
	}

	c := &Context{
		ctx:       runCtx,
		cancel:    cancel,
		scope:     sc,
		layer:     layer,
		transport: t,
		name:      name,
		groups:    make(map[string]struct{}),
	}
	log := cfg.logger.With(slog.String("channel", name), slog.String("path", sc.Path))

	// Guaranteed-run release: membership and mailbox never outlive the task,
	// regardless of how it ended. Cleanup uses a detached context so it still
	// runs after runCtx is canceled.
	defer func() {
		c.setState(StateClosed)
		cleanupCtx := context.WithoutCancel(ctx)
		for _, g := range c.joinedGroups() {
			if err := layer.GroupDiscard(cleanupCtx, g, name); err != nil {
				log.Error("failed to discard group membership",
					slog.String("group", g), slog.Any("error", err))
			}
		}
		layer.CloseChannel(name)
		if p := safeCallVoid(func() { h.Disconnect(c) }); p != nil {
			log.Error("panic in disconnect hook",
				slog.Any("panic", p.value), slog.String("stack", string(p.stack)))
		}
		_ = t.Close(CloseNormal, "")
		log.Debug("connection closed")
	}()

	// CONNECTING: the connect hook runs exactly once and must accept.
	c.setState(StateConnecting)
	if err, p := safeCall(func() error { return h.Connect(c) }); p != nil {
		log.Error("panic in connect hook",
			slog.Any("panic", p.value), slog.String("stack", string(p.stack)))
		_ = t.Close(CloseInternalError, "")
		return ErrConnectionRejected
	} else if err != nil {
		log.Debug("connect hook rejected connection", slog.Any("error", err))
		_ = t.Close(ClosePolicyViolation, "")
		return fmt.Errorf("%w: %v", ErrConnectionRejected, err)
	}
	if !c.accepted.Load() {
		log.Debug("connect hook finished without accepting")
		_ = t.Close(ClosePolicyViolation, "")
		return ErrConnectionRejected
	}

	c.setState(StateOpen)
	log.Debug("connection open")

	// Closing the transport is what unblocks a pending wire read, so tie it
	// to task cancellation.
	go func() {
		<-runCtx.Done()
		_ = t.Close(CloseNormal, "")
	}()

	// Resolved once, before the first event can arrive.
	events := h.Events()

	done := make(chan struct{}, 2)

	// Wire pump: inbound messages from the live connection.
	go func() {
		defer func() { cancel(); done <- struct{}{} }()
		for {
			data, err := t.ReadMessage(runCtx)
			if err != nil {
				if runCtx.Err() == nil && !errors.Is(err, io.EOF) {
					log.Debug("wire read ended", slog.Any("error", err))
				}
				return
			}
			if err, p := safeCall(func() error { return h.Receive(c, data) }); p != nil {
				log.Error("panic in receive hook",
					slog.Any("panic", p.value), slog.String("stack", string(p.stack)))
				return
			} else if err != nil {
				// Malformed or otherwise unprocessable payloads never kill
				// the connection.
				log.Warn("receive hook failed", slog.Any("error", err))
			}
		}
	}()

	// Event pump: channel-layer events dispatched by type.
	go func() {
		defer func() { cancel(); done <- struct{}{} }()
		for {
			msg, err := layer.Receive(runCtx, name)
			if err != nil {
				if runCtx.Err() == nil && !errors.Is(err, channel.ErrChannelClosed) {
					log.Error("channel receive failed", slog.Any("error", err))
				}
				return
			}
			fn, ok := events[msg.Type]
			if !ok {
				log.Error("event dispatch failed",
					slog.String("type", msg.Type), slog.Any("error", ErrUnknownEventType))
				continue
			}
			if err, p := safeCall(func() error { return fn(c, msg) }); p != nil {
				log.Error("panic in event hook",
					slog.String("type", msg.Type),
					slog.Any("panic", p.value), slog.String("stack", string(p.stack)))
				return
			} else if err != nil {
				log.Warn("event hook failed",
					slog.String("type", msg.Type), slog.Any("error", err))
			}
		}
	}()

	<-done
	<-done
	return nil
}

// recovered captures a hook panic together with its stack.
type recovered struct {
	value any
	stack []byte
}

// safeCall invokes fn, converting a panic into a recovered value so an
// application bug closes one connection instead of the process.
func safeCall(fn func() error) (err error, p *recovered) {
	defer func() {
		if v := recover(); v != nil {
			p = &recovered{value: v, stack: debug.Stack()}
		}
	}()
	return fn(), nil
}

func safeCallVoid(fn func()) (p *recovered) {
	defer func() {
		if v := recover(); v != nil {
			p = &recovered{value: v, stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
