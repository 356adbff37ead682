package consumer

import "errors"

var (
	// ErrAlreadyAccepted is returned when Accept is called more than once.
	ErrAlreadyAccepted = errors.New("connection already accepted")

	// ErrNotAccepted is returned when wire I/O is attempted before Accept.
	ErrNotAccepted = errors.New("connection not accepted")

	// ErrConnectionRejected is returned by Serve when the Connect hook
	// finished without accepting the connection.
	ErrConnectionRejected = errors.New("connection rejected")

	// ErrUnknownEventType is reported when an inbound event's type has no
	// entry in the handler's event table. The connection keeps running.
	ErrUnknownEventType = errors.New("unknown event type")
)
