package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Ken-mbira/channels/core/channel"
	"github.com/Ken-mbira/channels/core/consumer"
	"github.com/Ken-mbira/channels/core/logger"
	"github.com/Ken-mbira/channels/core/scope"
)

// eventChatMessage is the channel-layer event type carrying one chat line.
const eventChatMessage = "chat.message"

// roomGroup derives the group name every handler for the same room converges
// on. The room identifier comes from the path and may contain characters the
// group charset forbids; it is validated, never sanitized, since stripping
// characters could make distinct rooms collide.
func roomGroup(room string) (string, error) {
	group := "chat." + room
	if err := channel.ValidateGroupName(group); err != nil {
		return "", err
	}
	return group, nil
}

// wirePayload is the application wire format, both directions.
type wirePayload struct {
	Message string `json:"message"`
}

// chatHandler serves one websocket connection to one room.
type chatHandler struct {
	log   *slog.Logger
	group string
}

func newChatHandler(log *slog.Logger) consumer.Factory {
	return func() consumer.Handler {
		return &chatHandler{log: log}
	}
}

// Connect joins the room group and accepts. Accept comes last so membership
// never precedes a confirmed transport. An invalid room rejects the
// connection by returning without accepting.
func (h *chatHandler) Connect(c *consumer.Context) error {
	group, err := roomGroup(c.Scope().Param("room"))
	if err != nil {
		return fmt.Errorf("invalid room: %w", err)
	}
	h.group = group

	if err := c.GroupAdd(group); err != nil {
		return err
	}
	return c.Accept()
}

// Receive parses one inbound wire message and fans it out to the room.
// Malformed payloads are reported and ignored; the connection lives on.
func (h *chatHandler) Receive(c *consumer.Context, data []byte) error {
	var in wirePayload
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}

	return c.GroupSend(h.group, channel.Message{
		Type:    eventChatMessage,
		Payload: map[string]any{"message": in.Message},
	})
}

// Disconnect has nothing to release: group membership and the channel are
// cleaned up by the serving task.
func (h *chatHandler) Disconnect(c *consumer.Context) {
	h.log.Debug("chat connection closed",
		logger.Component("chat"), slog.String("channel", c.Channel()))
}

func (h *chatHandler) Events() map[string]consumer.EventFunc {
	return map[string]consumer.EventFunc{
		eventChatMessage: h.onChatMessage,
	}
}

// onChatMessage relays a room event back out over the live connection.
func (h *chatHandler) onChatMessage(c *consumer.Context, msg channel.Message) error {
	return c.SendJSON(wirePayload{Message: msg.GetString("message")})
}

// usernameFromCookie is a sample identity decorator: it lifts the "username"
// cookie into the scope. Absent cookie passes the scope through unchanged —
// authentication policy itself is out of scope here.
func usernameFromCookie(ctx context.Context, s *scope.Scope) (*scope.Scope, error) {
	if c, ok := s.Cookie("username"); ok {
		s.User = c.Value
	}
	return s, nil
}
