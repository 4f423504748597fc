package signaling

import (
	"encoding/json"
	"log/slog"
)

// RoomEvent is anything that changes what the room view shows.
type RoomEvent interface {
	roomEvent()
}

// QueueUpdate carries the full waiting queue. Only the host receives it.
type QueueUpdate struct{ Queue []Participant }

// MemberJoined carries the roster after ID was admitted.
type MemberJoined struct {
	ID      string
	Members []Participant
}

type MemberLeft struct{ ID string }

// PromotedToHost means this connection now admits and rejects.
type PromotedToHost struct{}

type ChatMessage struct {
	Body     string
	Sender   string
	SenderID string
}

type HandUpdate struct {
	ID     string
	Raised bool
}

type MuteUpdate struct {
	ID    string
	Muted bool
}

func (QueueUpdate) roomEvent()    {}
func (MemberJoined) roomEvent()   {}
func (MemberLeft) roomEvent()     {}
func (PromotedToHost) roomEvent() {}
func (ChatMessage) roomEvent()    {}
func (HandUpdate) roomEvent()     {}
func (MuteUpdate) roomEvent()     {}

// SignalMessage is a relayed negotiation payload, still undecoded.
type SignalMessage struct {
	From    string
	Payload json.RawMessage
}

// Handler routes incoming events to channels. Admission outcomes, relayed
// signals and room updates each get their own channel; Disconnected is
// closed when the connection ends.
type Handler struct {
	incoming <-chan *Message

	Accepted     chan string
	Rejected     chan string
	Waiting      chan struct{}
	Signal       chan *SignalMessage
	Room         chan RoomEvent
	Disconnected chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(incoming <-chan *Message) *Handler {
	return &Handler{
		incoming:     incoming,
		Accepted:     make(chan string, 1),
		Rejected:     make(chan string, 1),
		Waiting:      make(chan struct{}, 1),
		Signal:       make(chan *SignalMessage, 64),
		Room:         make(chan RoomEvent, 256),
		Disconnected: make(chan struct{}),
	}
}

// Start routes messages until the incoming channel closes.
func (h *Handler) Start() {
	defer close(h.Disconnected)

	for msg := range h.incoming {
		if err := h.route(msg); err != nil {
			slog.Debug("dropping event", "event", msg.Event, "err", err)
		}
	}
}

func (h *Handler) route(msg *Message) error {
	switch msg.Event {
	case EventEntryAccepted:
		var key string
		if err := msg.Decode(&key); err != nil {
			return err
		}
		offer(h.Accepted, key)

	case EventEntryRejected:
		var key string
		if err := msg.Decode(&key); err != nil {
			return err
		}
		offer(h.Rejected, key)

	case EventWaitForAdmin:
		offer(h.Waiting, struct{}{})

	case EventSignal:
		var s SignalMessage
		if err := msg.Decode(&s.From, &s.Payload); err != nil {
			return err
		}
		offer(h.Signal, &s)

	case EventUserWaiting:
		var u QueueUpdate
		if err := msg.Decode(&u.Queue); err != nil {
			return err
		}
		h.room(u)

	case EventUserJoined:
		var u MemberJoined
		if err := msg.Decode(&u.ID, &u.Members); err != nil {
			return err
		}
		h.room(u)

	case EventUserLeft:
		var u MemberLeft
		if err := msg.Decode(&u.ID); err != nil {
			return err
		}
		h.room(u)

	case EventYouAreAdmin:
		h.room(PromotedToHost{})

	case EventChat:
		var c ChatMessage
		if err := msg.Decode(&c.Body, &c.Sender, &c.SenderID); err != nil {
			return err
		}
		h.room(c)

	case EventHandUpdate:
		var u HandUpdate
		if err := msg.Decode(&u.ID, &u.Raised); err != nil {
			return err
		}
		h.room(u)

	case EventMuteUpdate:
		var u MuteUpdate
		if err := msg.Decode(&u.ID, &u.Muted); err != nil {
			return err
		}
		h.room(u)

	default:
		slog.Debug("unknown event", "event", msg.Event)
	}
	return nil
}

func (h *Handler) room(e RoomEvent) {
	if !offer(h.Room, e) {
		slog.Warn("room event dropped, view is not keeping up", "event", e)
	}
}

// offer sends without blocking the read loop.
func offer[T any](ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}
