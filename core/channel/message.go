package channel

// Message is the unit of delivery between connection handlers. Type names the
// handler event hook the message is dispatched to; Payload carries arbitrary
// named fields. Messages are treated as immutable once sent.
type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Get returns the payload field for key, or nil if absent.
func (m Message) Get(key string) any {
	if m.Payload == nil {
		return nil
	}
	return m.Payload[key]
}

// GetString returns the payload field for key as a string.
// Missing or non-string values yield the empty string.
func (m Message) GetString(key string) string {
	s, _ := m.Get(key).(string)
	return s
}
