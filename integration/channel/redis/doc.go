// Package redis provides a Redis-backed channel layer so independently
// deployed processes share channels and groups: a handler in one process can
// fan a message out to members connected to any other process.
//
// Mailboxes are Redis lists under a configurable key prefix, capped at the
// configured capacity and expired after the message expiry so a dead
// consumer's backlog cannot grow without bound. Groups are Redis sets with a
// refreshed expiry. The semantics match the in-memory layer: at-most-once,
// best-effort delivery, per-sender per-recipient FIFO, per-recipient failure
// isolation during fan-out.
//
// Usage:
//
//	client, err := redis.Connect(ctx, redis.Config{
//	    ConnectionURL: "redis://localhost:6379/0",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	layer := redis.NewLayer(client, redis.WithKeyPrefix("chat"))
//
// The layer does not own the client; close it separately after the layer is
// no longer in use.
package redis
