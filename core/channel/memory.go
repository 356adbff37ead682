package channel

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// groupShardCount fixes the number of registry shards. Group operations on
// names that hash to different shards never contend on the same lock.
const groupShardCount = 32

// envelope pairs a queued message with its enqueue time so expired messages
// can be dropped at receive time.
type envelope struct {
	msg Message
	at  time.Time
}

// mailbox is a bounded FIFO queue for a single channel. The buffered Go
// channel provides capacity, ordering, and blocking receive; done signals
// destruction to any blocked reader.
type mailbox struct {
	queue chan envelope
	done  chan struct{}
	once  sync.Once
}

func (mb *mailbox) close() {
	mb.once.Do(func() { close(mb.done) })
}

// groupShard holds a slice of the group registry under its own lock.
type groupShard struct {
	mu     sync.Mutex
	groups map[string]map[string]struct{}
}

// InMemoryLayer implements Layer for single-process deployments. Mailboxes
// live on the heap, the group registry is sharded by group-name hash so many
// rooms do not funnel through one lock.
type InMemoryLayer struct {
	capacity int
	expiry   time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	mailboxes map[string]*mailbox
	closed    bool

	shards [groupShardCount]*groupShard
}

var _ Layer = (*InMemoryLayer)(nil)

// NewInMemoryLayer creates an in-memory channel layer.
//
// Example:
//
//	layer := channel.NewInMemoryLayer(
//	    channel.WithCapacity(100),
//	    channel.WithExpiry(time.Minute),
//	    channel.WithLogger(logger),
//	)
//	defer layer.Close()
func NewInMemoryLayer(opts ...Option) *InMemoryLayer {
	l := &InMemoryLayer{
		capacity:  DefaultCapacity,
		expiry:    DefaultExpiry,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mailboxes: make(map[string]*mailbox),
	}
	for i := range l.shards {
		l.shards[i] = &groupShard{groups: make(map[string]map[string]struct{})}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewChannel implements Layer. Names are a handler-type tag plus a UUID, so
// collisions cannot occur within the process group's lifetime.
func (l *InMemoryLayer) NewChannel(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		prefix = "channel"
	}
	if !ValidGroupName(prefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannelPrefix, prefix)
	}

	name := prefix + "." + uuid.NewString()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return "", ErrLayerClosed
	}
	l.mailboxes[name] = &mailbox{
		queue: make(chan envelope, l.capacity),
		done:  make(chan struct{}),
	}
	return name, nil
}

// CloseChannel implements Layer. Beyond destroying the mailbox it sweeps the
// channel out of every group, so membership cannot leak even when the owning
// handler's own cleanup was skipped.
func (l *InMemoryLayer) CloseChannel(name string) {
	l.mu.Lock()
	mb, ok := l.mailboxes[name]
	if ok {
		delete(l.mailboxes, name)
	}
	l.mu.Unlock()

	if ok {
		mb.close()
	}

	for _, shard := range l.shards {
		shard.mu.Lock()
		for group, members := range shard.groups {
			delete(members, name)
			if len(members) == 0 {
				delete(shard.groups, group)
			}
		}
		shard.mu.Unlock()
	}
}

// Send implements Layer.
func (l *InMemoryLayer) Send(ctx context.Context, channel string, msg Message) error {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrLayerClosed
	}
	mb, ok := l.mailboxes[channel]
	l.mu.RUnlock()

	// No live registration: best-effort delivery, drop silently.
	if !ok {
		return nil
	}

	select {
	case mb.queue <- envelope{msg: msg, at: time.Now()}:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrChannelFull, channel)
	}
}

// Receive implements Layer. Expired messages are pruned here rather than by a
// background reaper, matching the bounded, pull-driven mailbox model.
func (l *InMemoryLayer) Receive(ctx context.Context, channel string) (Message, error) {
	l.mu.RLock()
	mb, ok := l.mailboxes[channel]
	closed := l.closed
	l.mu.RUnlock()

	if closed {
		return Message{}, ErrLayerClosed
	}
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrChannelClosed, channel)
	}

	for {
		// Drain buffered messages before reacting to destruction so nothing
		// already enqueued is lost on a clean handoff.
		select {
		case env := <-mb.queue:
			if l.expired(env) {
				continue
			}
			return env.msg, nil
		default:
		}

		select {
		case env := <-mb.queue:
			if l.expired(env) {
				continue
			}
			return env.msg, nil
		case <-mb.done:
			return Message{}, fmt.Errorf("%w: %s", ErrChannelClosed, channel)
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

func (l *InMemoryLayer) expired(env envelope) bool {
	return l.expiry > 0 && time.Since(env.at) > l.expiry
}

// GroupAdd implements Layer. Membership is a set: adding twice has no
// additional effect.
func (l *InMemoryLayer) GroupAdd(ctx context.Context, group, channel string) error {
	if err := ValidateGroupName(group); err != nil {
		return err
	}

	shard := l.shard(group)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	members, ok := shard.groups[group]
	if !ok {
		members = make(map[string]struct{})
		shard.groups[group] = members
	}
	members[channel] = struct{}{}
	return nil
}

// GroupDiscard implements Layer. Empty groups are reaped immediately.
func (l *InMemoryLayer) GroupDiscard(ctx context.Context, group, channel string) error {
	if err := ValidateGroupName(group); err != nil {
		return err
	}

	shard := l.shard(group)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	members, ok := shard.groups[group]
	if !ok {
		return nil
	}
	delete(members, channel)
	if len(members) == 0 {
		delete(shard.groups, group)
	}
	return nil
}

// GroupSend implements Layer. The membership snapshot is taken under the
// shard lock, the sends happen outside it. A full member is logged at warn
// level and skipped; the fan-out always reaches every deliverable member.
func (l *InMemoryLayer) GroupSend(ctx context.Context, group string, msg Message) error {
	if err := ValidateGroupName(group); err != nil {
		return err
	}

	shard := l.shard(group)
	shard.mu.Lock()
	members := make([]string, 0, len(shard.groups[group]))
	for name := range shard.groups[group] {
		members = append(members, name)
	}
	shard.mu.Unlock()

	for _, name := range members {
		if err := l.Send(ctx, name, msg); err != nil {
			l.logger.WarnContext(ctx, "group fan-out skipped member",
				slog.String("group", group),
				slog.String("channel", name),
				slog.Any("error", err))
		}
	}
	return nil
}

// Close implements Layer. Every mailbox is destroyed and blocked receivers
// are woken; subsequent operations fail with ErrLayerClosed.
func (l *InMemoryLayer) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLayerClosed
	}
	l.closed = true
	boxes := l.mailboxes
	l.mailboxes = make(map[string]*mailbox)
	l.mu.Unlock()

	for _, mb := range boxes {
		mb.close()
	}

	for _, shard := range l.shards {
		shard.mu.Lock()
		shard.groups = make(map[string]map[string]struct{})
		shard.mu.Unlock()
	}

	l.logger.Info("in-memory channel layer closed")
	return nil
}

func (l *InMemoryLayer) shard(group string) *groupShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(group))
	return l.shards[h.Sum32()%groupShardCount]
}
