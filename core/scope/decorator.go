package scope

import "context"

// Decorator rewrites a scope before the connection handler is constructed,
// typically to inject a resolved identity. Returning an error rejects the
// connection before any handler or channel state exists.
type Decorator func(ctx context.Context, s *Scope) (*Scope, error)

// Chain composes decorators left to right. Nil entries are skipped; an empty
// chain passes the scope through unchanged.
func Chain(decorators ...Decorator) Decorator {
	return func(ctx context.Context, s *Scope) (*Scope, error) {
		for _, d := range decorators {
			if d == nil {
				continue
			}
			var err error
			if s, err = d(ctx, s); err != nil {
				return nil, err
			}
		}
		return s, nil
	}
}
