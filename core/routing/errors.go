package routing

import "errors"

var (
	// ErrRouteNotFound is reported when no registered pattern matches an
	// inbound connection path. Fatal for that connection attempt only.
	ErrRouteNotFound = errors.New("no route matches path")

	// ErrInvalidPattern is returned when a route pattern cannot be compiled.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrNilFactory is raised when a route is registered without a handler
	// factory.
	ErrNilFactory = errors.New("nil handler factory")
)
