package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/Ken-mbira/channels/core/channel"
	"github.com/Ken-mbira/channels/core/scope"
)

// State is a connection lifecycle phase. Transitions only move forward;
// StateClosed is terminal.
type State int32

const (
	StatePending State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Context is the handler's view of its connection: the scope, the owned
// channel, wire output, and group membership. It is bound to exactly one
// connection and must not outlive it.
type Context struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scope     *scope.Scope
	layer     channel.Layer
	transport Transport
	name      string

	state    atomic.Int32
	accepted atomic.Bool

	mu     sync.Mutex
	groups map[string]struct{}
}

// Scope returns the per-connection scope populated by the router.
func (c *Context) Scope() *scope.Scope { return c.scope }

// Channel returns the name of the channel owned by this connection.
func (c *Context) Channel() string { return c.name }

// State returns the current lifecycle phase.
func (c *Context) State() State { return State(c.state.Load()) }

// Accept confirms the connection at the transport level, moving it toward
// OPEN. It is the extension point for authorization: a Connect hook that
// returns without calling Accept rejects the connection. Calling Accept
// twice returns ErrAlreadyAccepted.
func (c *Context) Accept() error {
	if !c.accepted.CompareAndSwap(false, true) {
		return ErrAlreadyAccepted
	}
	if err := c.transport.Accept(); err != nil {
		c.accepted.Store(false)
		return err
	}
	return nil
}

// Close terminates the connection. Safe to call from any hook; teardown and
// group cleanup run in the serving task.
func (c *Context) Close() {
	c.cancel()
}

// Send writes raw data to the peer over the live connection.
func (c *Context) Send(data []byte) error {
	if !c.accepted.Load() {
		return ErrNotAccepted
	}
	return c.transport.WriteMessage(c.ctx, data)
}

// SendJSON marshals v and writes it to the peer.
func (c *Context) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// GroupAdd joins this connection's channel to the group and records the
// membership locally so it can be released symmetrically on disconnect.
func (c *Context) GroupAdd(group string) error {
	if err := c.layer.GroupAdd(c.ctx, group, c.name); err != nil {
		return err
	}
	c.mu.Lock()
	c.groups[group] = struct{}{}
	c.mu.Unlock()
	return nil
}

// GroupDiscard removes this connection's channel from the group.
func (c *Context) GroupDiscard(group string) error {
	if err := c.layer.GroupDiscard(c.ctx, group, c.name); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.groups, group)
	c.mu.Unlock()
	return nil
}

// GroupSend fans msg out to every current member of the group, this
// connection included when it is a member.
func (c *Context) GroupSend(group string, msg channel.Message) error {
	return c.layer.GroupSend(c.ctx, group, msg)
}

func (c *Context) setState(s State) {
	c.state.Store(int32(s))
}

// joinedGroups snapshots the locally tracked membership set.
func (c *Context) joinedGroups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.groups))
	for g := range c.groups {
		out = append(out, g)
	}
	return out
}
