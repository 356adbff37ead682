package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Ken-mbira/channels/core/channel"
)

const (
	// DefaultCapacity is the default per-channel mailbox capacity.
	DefaultCapacity = 100

	// DefaultExpiry is how long an undelivered message stays readable.
	DefaultExpiry = time.Minute

	// DefaultGroupExpiry bounds how long an unmaintained group survives, so
	// a crashed process cannot leak memberships forever.
	DefaultGroupExpiry = 24 * time.Hour

	// blockInterval is the BLPOP timeout per iteration; short enough that a
	// canceled context is noticed promptly.
	blockInterval = 5 * time.Second
)

// Layer implements channel.Layer on Redis. Safe for concurrent use; a single
// Layer is shared by every connection task in the process.
type Layer struct {
	client      redis.UniversalClient
	prefix      string
	capacity    int64
	expiry      time.Duration
	groupExpiry time.Duration
	logger      *slog.Logger
}

var _ channel.Layer = (*Layer)(nil)

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithKeyPrefix namespaces every key the layer touches. Defaults to
// "channels". Deployments sharing one Redis must use distinct prefixes.
func WithKeyPrefix(prefix string) LayerOption {
	return func(l *Layer) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithCapacity sets the per-channel mailbox capacity.
func WithCapacity(n int) LayerOption {
	return func(l *Layer) {
		if n > 0 {
			l.capacity = int64(n)
		}
	}
}

// WithExpiry sets how long queued messages stay deliverable.
func WithExpiry(d time.Duration) LayerOption {
	return func(l *Layer) {
		if d > 0 {
			l.expiry = d
		}
	}
}

// WithGroupExpiry sets the idle lifetime of group membership sets. The
// expiry is refreshed on every membership mutation.
func WithGroupExpiry(d time.Duration) LayerOption {
	return func(l *Layer) {
		if d > 0 {
			l.groupExpiry = d
		}
	}
}

// WithLogger configures structured logging for the layer.
func WithLogger(logger *slog.Logger) LayerOption {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLayer creates a Redis-backed channel layer on an existing client. The
// layer does not own the client.
func NewLayer(client redis.UniversalClient, opts ...LayerOption) *Layer {
	l := &Layer{
		client:      client,
		prefix:      "channels",
		capacity:    DefaultCapacity,
		expiry:      DefaultExpiry,
		groupExpiry: DefaultGroupExpiry,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) channelKey(name string) string { return l.prefix + ":channel:" + name }
func (l *Layer) groupKey(name string) string   { return l.prefix + ":group:" + name }

// NewChannel implements channel.Layer. The mailbox key is created lazily on
// first send, so registration is purely name generation.
func (l *Layer) NewChannel(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		prefix = "channel"
	}
	if !channel.ValidGroupName(prefix) {
		return "", fmt.Errorf("%w: %q", channel.ErrInvalidChannelPrefix, prefix)
	}
	return prefix + "." + uuid.NewString(), nil
}

// CloseChannel implements channel.Layer. Group memberships are not swept
// here — the owning process discards them through its tracked set, and the
// group expiry reaps anything a crashed process left behind.
func (l *Layer) CloseChannel(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), blockInterval)
	defer cancel()
	if err := l.client.Del(ctx, l.channelKey(name)).Err(); err != nil {
		l.logger.Warn("failed to delete channel mailbox",
			slog.String("channel", name), slog.Any("error", err))
	}
}

// Send implements channel.Layer. The capacity check and push are separate
// commands; the race between them is acceptable under the best-effort
// delivery contract.
func (l *Layer) Send(ctx context.Context, name string, msg channel.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := l.channelKey(name)
	size, err := l.client.LLen(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check mailbox size: %w", err)
	}
	if size >= l.capacity {
		return fmt.Errorf("%w: %s", channel.ErrChannelFull, name)
	}

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, l.expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}

// Receive implements channel.Layer. Blocks in bounded BLPOP intervals so the
// caller's context is honored promptly.
func (l *Layer) Receive(ctx context.Context, name string) (channel.Message, error) {
	key := l.channelKey(name)
	for {
		if err := ctx.Err(); err != nil {
			return channel.Message{}, err
		}

		res, err := l.client.BLPop(ctx, blockInterval, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return channel.Message{}, ctx.Err()
			}
			return channel.Message{}, fmt.Errorf("receive from %s: %w", name, err)
		}

		// BLPop returns [key, value].
		var msg channel.Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			l.logger.Warn("dropping undecodable message",
				slog.String("channel", name), slog.Any("error", err))
			continue
		}
		return msg, nil
	}
}

// GroupAdd implements channel.Layer.
func (l *Layer) GroupAdd(ctx context.Context, group, name string) error {
	if err := channel.ValidateGroupName(group); err != nil {
		return err
	}

	key := l.groupKey(group)
	pipe := l.client.TxPipeline()
	pipe.SAdd(ctx, key, name)
	pipe.Expire(ctx, key, l.groupExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add %s to group %s: %w", name, group, err)
	}
	return nil
}

// GroupDiscard implements channel.Layer.
func (l *Layer) GroupDiscard(ctx context.Context, group, name string) error {
	if err := channel.ValidateGroupName(group); err != nil {
		return err
	}

	if err := l.client.SRem(ctx, l.groupKey(group), name).Err(); err != nil {
		return fmt.Errorf("discard %s from group %s: %w", name, group, err)
	}
	return nil
}

// GroupSend implements channel.Layer. Each member is an independent Send; a
// full or failing member is logged and skipped so it cannot block the rest
// of the fan-out.
func (l *Layer) GroupSend(ctx context.Context, group string, msg channel.Message) error {
	if err := channel.ValidateGroupName(group); err != nil {
		return err
	}

	members, err := l.client.SMembers(ctx, l.groupKey(group)).Result()
	if err != nil {
		return fmt.Errorf("list group %s: %w", group, err)
	}

	for _, member := range members {
		if err := l.Send(ctx, member, msg); err != nil {
			l.logger.WarnContext(ctx, "group fan-out skipped member",
				slog.String("group", group),
				slog.String("channel", member),
				slog.Any("error", err))
		}
	}
	return nil
}

// Close implements channel.Layer. The Redis client is owned by the caller,
// so there is nothing to tear down here.
func (l *Layer) Close() error {
	return nil
}
