// Package channel provides the messaging core of the framework: uniquely named,
// bounded mailboxes (channels) and dynamic fan-out sets of channels (groups).
//
// A channel is a single-consumer FIFO queue owned by exactly one connection
// handler. A group maps a name to a set of channel names and supports sending
// to every member without ever exposing the membership itself, so application
// code cannot couple to how many peers exist or where they run.
//
// The Layer interface is the facade over both. Two implementations exist: the
// in-memory layer in this package for single-process deployments, and the
// Redis-backed layer in integration/channel/redis for multi-process ones.
// Handler code is identical against either.
//
// Delivery is at-most-once and best-effort by design: a send to a channel that
// no longer exists is a silent no-op, and a send to a full mailbox fails with
// ErrChannelFull instead of blocking, so a slow or dead consumer can never
// cause unbounded memory growth or stall unrelated senders.
//
// Basic usage:
//
//	layer := channel.NewInMemoryLayer(
//	    channel.WithCapacity(100),
//	    channel.WithExpiry(time.Minute),
//	)
//	defer layer.Close()
//
//	name, _ := layer.NewChannel(ctx, "websocket")
//	_ = layer.GroupAdd(ctx, "chat.lobby", name)
//	_ = layer.GroupSend(ctx, "chat.lobby", channel.Message{
//	    Type:    "chat.message",
//	    Payload: map[string]any{"message": "hello"},
//	})
//
//	msg, _ := layer.Receive(ctx, name) // blocks until a message arrives
package channel
