package channel

import "errors"

var (
	// ErrInvalidGroupName is returned when a group operation is called with a
	// name outside the allowed character set. The registry is left unchanged.
	ErrInvalidGroupName = errors.New("invalid group name")

	// ErrInvalidChannelPrefix is returned by NewChannel when the requested
	// prefix contains characters outside the allowed set.
	ErrInvalidChannelPrefix = errors.New("invalid channel prefix")

	// ErrChannelFull is returned when the target mailbox is at capacity.
	// The caller decides the policy: group fan-out drops and logs, direct
	// senders may retry or propagate.
	ErrChannelFull = errors.New("channel mailbox is full")

	// ErrChannelClosed is returned by Receive when the channel was closed
	// while the caller was waiting.
	ErrChannelClosed = errors.New("channel is closed")

	// ErrLayerClosed is returned when an operation is attempted on a layer
	// that has been shut down.
	ErrLayerClosed = errors.New("channel layer is closed")
)
