package channel

import (
	"log/slog"
	"time"
)

const (
	// DefaultCapacity is the default mailbox capacity.
	DefaultCapacity = 100

	// DefaultExpiry is how long an undelivered message stays eligible for
	// receipt before being dropped.
	DefaultExpiry = time.Minute
)

// Option configures an InMemoryLayer.
type Option func(*InMemoryLayer)

// WithCapacity sets the per-channel mailbox capacity. Values below one are
// ignored.
func WithCapacity(n int) Option {
	return func(l *InMemoryLayer) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithExpiry sets how long queued messages stay deliverable. Zero disables
// expiry.
func WithExpiry(d time.Duration) Option {
	return func(l *InMemoryLayer) {
		if d >= 0 {
			l.expiry = d
		}
	}
}

// WithLogger configures structured logging for the layer.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(l *InMemoryLayer) {
		if logger != nil {
			l.logger = logger
		}
	}
}
