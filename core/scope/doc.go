// Package scope models the per-connection context handed to connection
// handlers: protocol kind, path, path-derived parameters, headers, cookies,
// and — when an identity decorator is installed — the resolved user.
//
// A Scope is populated once at connection-establishment time by the router
// and owned exclusively by the handler for the connection's lifetime. It is
// never shared or mutated concurrently.
//
// Decorators are the extension point for excluded subsystems such as
// authentication: a Decorator receives the scope before the handler runs and
// returns a (possibly replacement) scope with identity injected. Decorators
// are pure with respect to channel and group state.
package scope
