// Package consumer runs the per-connection state machine bridging a live
// bidirectional connection and the channel layer.
//
// Each accepted connection gets one Handler instance, one channel, and one
// call to Serve. Serve drives the lifecycle
//
//	PENDING → CONNECTING → OPEN → CLOSED
//
// and guarantees that however the connection ends — peer close, hook error,
// hook panic, context cancellation — the handler's channel is destroyed and
// discarded from every group it joined.
//
// While OPEN, two concurrent inputs feed the handler: inbound wire messages
// dispatched to the Receive hook, and channel-layer events dispatched by
// their Type to the hook registered for it in the handler's Events table.
//
// A minimal handler:
//
//	type Echo struct{}
//
//	func (Echo) Connect(c *consumer.Context) error { return c.Accept() }
//
//	func (Echo) Receive(c *consumer.Context, data []byte) error {
//	    return c.GroupSend("echo", channel.Message{
//	        Type:    "echo.message",
//	        Payload: map[string]any{"message": string(data)},
//	    })
//	}
//
//	func (Echo) Disconnect(c *consumer.Context) {}
//
//	func (Echo) Events() map[string]consumer.EventFunc {
//	    return map[string]consumer.EventFunc{
//	        "echo.message": func(c *consumer.Context, msg channel.Message) error {
//	            return c.Send([]byte(msg.GetString("message")))
//	        },
//	    }
//	}
package consumer
