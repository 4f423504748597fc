package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message is the envelope for every client-to-server and server-to-client
// websocket frame: a named event plus positional arguments, each argument an
// independent JSON value.
type Message struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

// Inbound events.
const (
	EventJoinCall    = "join-call"
	EventAdmitUser   = "admit-user"
	EventRejectUser  = "reject-user"
	EventToggleHand  = "toggle-hand"
	EventToggleMute  = "toggle-mute-status"
	EventSignal      = "signal"
	EventChatMessage = "chat-message"
	EventDisconnect  = "disconnect"
)

// Outbound events. signal and chat-message are shared with the inbound set.
const (
	EventUserWaiting   = "user-waiting"
	EventWaitForAdmin  = "wait-for-admin"
	EventEntryAccepted = "entry-accepted"
	EventEntryRejected = "entry-rejected"
	EventYouAreAdmin   = "you-are-admin"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventHandUpdate    = "hand-update"
	EventMuteUpdate    = "mute-update"
)

var ErrInvalidArgs = errors.New("invalid event arguments")

// NewMessage encodes args positionally. A json.RawMessage argument is passed
// through verbatim, which is how relayed payloads stay uninterpreted.
func NewMessage(event string, args ...any) (*Message, error) {
	raw := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		if r, ok := arg.(json.RawMessage); ok {
			raw = append(raw, r)
			continue
		}
		b, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode %s arg %d: %w", event, i, err)
		}
		raw = append(raw, b)
	}
	return &Message{Event: event, Args: raw}, nil
}

// Decode unmarshals the leading arguments into dst, in order. Extra
// arguments are ignored.
func (m *Message) Decode(dst ...any) error {
	if len(m.Args) < len(dst) {
		return fmt.Errorf("%s: want %d args, got %d: %w", m.Event, len(dst), len(m.Args), ErrInvalidArgs)
	}
	for i, d := range dst {
		if err := json.Unmarshal(m.Args[i], d); err != nil {
			return fmt.Errorf("%s arg %d: %w", m.Event, i, errors.Join(ErrInvalidArgs, err))
		}
	}
	return nil
}
