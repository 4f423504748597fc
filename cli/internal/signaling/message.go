package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message is one websocket frame: an event name and positional arguments.
type Message struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

// Events sent by the CLI.
const (
	EventJoinCall   = "join-call"
	EventAdmitUser  = "admit-user"
	EventRejectUser = "reject-user"
	EventToggleHand = "toggle-hand"
	EventToggleMute = "toggle-mute-status"
	EventSignal     = "signal"
	EventChat       = "chat-message"
)

// Events received from the coordinator.
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

var (
	ErrBadArgs = errors.New("bad event arguments")
	ErrClosed  = errors.New("signaling connection closed")
)

// Participant is a member or a waiting connection.
type Participant struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NewMessage encodes args in order. json.RawMessage values are sent as is.
func NewMessage(event string, args ...any) (*Message, error) {
	msg := &Message{Event: event, Args: make([]json.RawMessage, 0, len(args))}
	for i, arg := range args {
		raw, ok := arg.(json.RawMessage)
		if !ok {
			b, err := json.Marshal(arg)
			if err != nil {
				return nil, fmt.Errorf("encode %s arg %d: %w", event, i, err)
			}
			raw = b
		}
		msg.Args = append(msg.Args, raw)
	}
	return msg, nil
}

// Decode fills dst from the leading arguments.
func (m *Message) Decode(dst ...any) error {
	if len(m.Args) < len(dst) {
		return fmt.Errorf("%s: %w: have %d, want %d", m.Event, ErrBadArgs, len(m.Args), len(dst))
	}
	for i := range dst {
		if err := json.Unmarshal(m.Args[i], dst[i]); err != nil {
			return fmt.Errorf("%s arg %d: %w: %v", m.Event, i, ErrBadArgs, err)
		}
	}
	return nil
}
