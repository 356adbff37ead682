package channel

import (
	"context"
	"fmt"
)

// Layer is the facade over channels and groups. All operations are safe for
// concurrent use from arbitrarily many connection tasks.
//
// Delivery contract: Send and GroupSend are at-most-once and best-effort.
// Sending to a channel that does not currently exist is a silent no-op, not
// an error, because channels naturally disappear on disconnect races. A full
// mailbox surfaces as ErrChannelFull on direct sends; during group fan-out a
// full member never prevents delivery to the remaining members.
//
// Ordering contract: messages sent by one sender to one group arrive at each
// individual recipient in the order sent. No cross-sender ordering is made.
type Layer interface {
	// NewChannel registers a fresh mailbox and returns its generated name.
	// The name is prefixed with the given handler-type tag and is unique for
	// the lifetime of the process group.
	NewChannel(ctx context.Context, prefix string) (string, error)

	// CloseChannel destroys the named mailbox, waking any blocked Receive and
	// removing the channel from every group it belongs to. Closing an unknown
	// channel is a no-op.
	CloseChannel(name string)

	// Send enqueues msg onto the named channel's mailbox.
	Send(ctx context.Context, channel string, msg Message) error

	// Receive blocks until a message is available on the named channel, then
	// removes and returns the oldest one. It returns ctx.Err() on
	// cancellation and ErrChannelClosed once the channel is destroyed.
	Receive(ctx context.Context, channel string) (Message, error)

	// GroupAdd inserts the channel into the group, creating the group on
	// first use. Adding an existing member is a no-op.
	GroupAdd(ctx context.Context, group, channel string) error

	// GroupDiscard removes the channel from the group. Removing a non-member
	// is a no-op.
	GroupDiscard(ctx context.Context, group, channel string) error

	// GroupSend performs an independent Send for every current member.
	GroupSend(ctx context.Context, group string, msg Message) error

	// Close tears down the layer and every registered channel.
	Close() error
}

// MaxNameLength is the longest group or channel name the layer accepts.
const MaxNameLength = 100

// ValidGroupName reports whether name is a legal group name: non-empty, at
// most MaxNameLength characters, drawn from [A-Za-z0-9._-].
func ValidGroupName(name string) bool {
	if name == "" || len(name) > MaxNameLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// ValidateGroupName returns ErrInvalidGroupName (wrapped with the offending
// name) when name is not a legal group name.
func ValidateGroupName(name string) error {
	if !ValidGroupName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidGroupName, name)
	}
	return nil
}
