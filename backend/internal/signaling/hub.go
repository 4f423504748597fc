package signaling

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Hub is the central brain of the signaling server. Every client event lands
// here and the hub owns the order in which rooms, the admission queue and
// presence are mutated.
//
// There is no global event loop: each connection's read pump calls into the
// hub on its own goroutine, and the per-room lock inside Registry serializes
// everything that touches the same room. Rooms never contend with each other.
type Hub struct {
	rooms    *Registry
	presence *Presence
	peers    *peerTable
	relay    *Relay
	log      *slog.Logger
}

// Options tunes hub behaviour.
type Options struct {
	// MaxChatHistory caps each room's replayable chat log. Zero means
	// unbounded.
	MaxChatHistory int
}

// NewHub creates a new Hub instance.
func NewHub(log *slog.Logger, opts Options) *Hub {
	peers := newPeerTable()
	return &Hub{
		rooms:    NewRegistry(opts.MaxChatHistory),
		presence: NewPresence(),
		peers:    peers,
		relay:    NewRelay(peers, log),
		log:      log,
	}
}

// Register makes a connection reachable. It is not in any room until it
// sends join-call.
func (h *Hub) Register(p Peer) {
	h.peers.add(p)
	h.log.Debug("Client registered", "conn", p.ID())
}

// Rooms exposes the registry for read-only reporting.
func (h *Hub) Rooms() *Registry {
	return h.rooms
}

// Presence exposes join times for read-only reporting.
func (h *Hub) Presence() *Presence {
	return h.presence
}

// Connections returns the number of registered connections.
func (h *Hub) Connections() int {
	return h.peers.len()
}

// Close closes every registered connection.
func (h *Hub) Close() {
	for _, p := range h.peers.all() {
		p.Close()
	}
}

func (h *Hub) emit(to, event string, args ...any) bool {
	peer, ok := h.peers.Lookup(to)
	if !ok {
		return false
	}
	msg, err := NewMessage(event, args...)
	if err != nil {
		h.log.Error("Failed to encode event", "event", event, "err", err)
		return false
	}
	return peer.Emit(msg)
}

// broadcast sends one event to every member of rm. A failed send to one
// member never stops delivery to the rest. Caller holds rm.mu.
func (h *Hub) broadcast(rm *Room, event string, args ...any) {
	msg, err := NewMessage(event, args...)
	if err != nil {
		h.log.Error("Failed to encode event", "event", event, "err", err)
		return
	}
	for _, m := range rm.members {
		peer, ok := h.peers.Lookup(m.ID)
		if !ok {
			continue
		}
		if !peer.Emit(msg) {
			h.log.Debug("Dropped event for slow or closed peer", "event", event, "conn", m.ID, "room", rm.Key)
		}
	}
}

// canAccept reports whether id is still connected and not a member of a
// room other than rm. Caller holds rm.mu.
func (h *Hub) canAccept(rm *Room, id string) bool {
	if _, ok := h.peers.Lookup(id); !ok {
		return false
	}
	key, ok := h.rooms.FindRoomContaining(id)
	return !ok || key == rm.Key
}

// accept runs the full join procedure for p: membership, presence, the
// acceptance notice, the roster broadcast and the chat replay. It refuses
// connections that are gone or already sit in another room. Caller holds
// rm.mu.
func (h *Hub) accept(rm *Room, p Participant) bool {
	if !h.canAccept(rm, p.ID) {
		return false
	}

	h.rooms.join(rm, p)
	h.presence.MarkJoined(p.ID)

	h.emit(p.ID, EventEntryAccepted, rm.Key)
	h.broadcast(rm, EventUserJoined, p.ID, rm.snapshot())
	for _, c := range rm.chat {
		h.emit(p.ID, EventChatMessage, c.Body, c.Sender, c.SenderID)
	}

	h.log.Info("Client joined room", "conn", p.ID, "room", rm.Key, "members", len(rm.members))
	return true
}

// Join handles join-call. The first joiner of a room becomes its admin and
// is admitted at once; everyone else is queued for the admin's decision.
// A connection waits for at most one room: joining another withdraws it from
// every other queue.
func (h *Hub) Join(id, key, name string) {
	if cur, ok := h.rooms.FindRoomContaining(id); ok {
		h.log.Debug("Ignoring join from current member", "conn", id, "room", cur)
		return
	}

	h.purgeQueues(id, key)

	// An admit elsewhere may have landed before the purge reached its room.
	if cur, ok := h.rooms.FindRoomContaining(id); ok {
		h.log.Debug("Ignoring join from member admitted elsewhere", "conn", id, "room", cur)
		return
	}

	h.rooms.withRoom(key, true, func(rm *Room) {
		p := Participant{ID: id, Username: name}
		switch rm.requestEntry(p) {
		case entryDirect:
			if h.accept(rm, p) {
				h.log.Info("Room opened", "room", rm.Key, "admin", id)
			}
		case entryQueued:
			h.emit(rm.admin, EventUserWaiting, rm.waiting.snapshot())
			h.emit(id, EventWaitForAdmin)
			h.log.Info("Client waiting for admission", "conn", id, "room", rm.Key)
		}
	})
}

// Admit handles admit-user. Only the room's admin may admit; any other
// caller is ignored without a reply.
func (h *Hub) Admit(requester, key, target string) {
	h.rooms.withRoom(key, false, func(rm *Room) {
		if !rm.isAdmin(requester) || !rm.waiting.contains(target) || !h.canAccept(rm, target) {
			h.log.Debug("Ignoring admit", "conn", requester, "target", target, "room", key)
			return
		}
		p, ok := rm.admit(requester, target)
		if !ok {
			h.log.Debug("Ignoring admit", "conn", requester, "target", target, "room", key)
			return
		}
		h.accept(rm, p)
		h.emit(rm.admin, EventUserWaiting, rm.waiting.snapshot())
	})
}

// Reject handles reject-user. The rejected connection gets entry-rejected,
// which is terminal for the client.
func (h *Hub) Reject(requester, key, target string) {
	h.rooms.withRoom(key, false, func(rm *Room) {
		if _, ok := rm.reject(requester, target); !ok {
			h.log.Debug("Ignoring reject", "conn", requester, "target", target, "room", key)
			return
		}
		h.emit(target, EventEntryRejected, rm.Key)
		h.emit(rm.admin, EventUserWaiting, rm.waiting.snapshot())
		h.log.Info("Client rejected", "conn", target, "room", rm.Key)
	})
}

// Signal relays a negotiation payload. No room membership is required.
func (h *Hub) Signal(from, to string, payload json.RawMessage) {
	h.relay.Relay(from, to, payload)
}

// Chat appends to the sender's room log and fans the message out to the
// members present right now.
func (h *Hub) Chat(id, body, sender string) {
	key, ok := h.rooms.FindRoomContaining(id)
	if !ok {
		h.log.Debug("Ignoring chat from non-member", "conn", id)
		return
	}

	h.rooms.withRoom(key, false, func(rm *Room) {
		if !rm.isMember(id) {
			return
		}
		rm.appendChat(ChatEntry{Sender: sender, Body: body, SenderID: id})
		h.broadcast(rm, EventChatMessage, body, sender, id)
	})
}

// ToggleHand broadcasts a raised or lowered hand. Nothing is stored.
func (h *Hub) ToggleHand(id, key string, raised bool) {
	h.toggle(id, key, EventHandUpdate, raised)
}

// ToggleMute broadcasts a mute state change. Nothing is stored.
func (h *Hub) ToggleMute(id, key string, muted bool) {
	h.toggle(id, key, EventMuteUpdate, muted)
}

func (h *Hub) toggle(id, key, event string, state bool) {
	h.rooms.withRoom(key, false, func(rm *Room) {
		if !rm.isMember(id) {
			return
		}
		h.broadcast(rm, event, id, state)
	})
}

// Disconnect tears a connection out of the hub. It is idempotent and safe
// for connections that never joined, are still queued, or are mid-admission.
//
// The peer is unregistered first so a concurrent admit cannot resurrect it,
// then every waiting queue is purged, and only then is room membership
// removed; by that point any admit that raced the purge has finished and
// indexed the connection.
func (h *Hub) Disconnect(id string) {
	if peer, ok := h.peers.remove(id); ok {
		peer.Close()
	}

	h.purgeQueues(id, "")

	if key, ok := h.rooms.FindRoomContaining(id); ok {
		h.rooms.withRoom(key, false, func(rm *Room) {
			if h.rooms.leave(rm, id) < 0 {
				return
			}
			h.broadcast(rm, EventUserLeft, id)

			if next, ok := rm.handOff(id); ok {
				h.emit(next, EventYouAreAdmin)
				if rm.waiting.Len() > 0 {
					h.emit(next, EventUserWaiting, rm.waiting.snapshot())
				}
				h.log.Info("Admin handed off", "room", rm.Key, "from", id, "to", next)
			}
			if len(rm.members) == 0 {
				h.log.Info("Room deleted", "room", rm.Key)
			}
		})
	}

	if d, ok := h.presence.Clear(id); ok {
		h.log.Info("Client left", "conn", id, "duration", d.Round(time.Millisecond))
	}
}

// purgeQueues takes id out of every waiting queue except the one for keep
// and sends each affected admin the shortened queue.
func (h *Hub) purgeQueues(id, keep string) {
	for _, stale := range h.rooms.Rooms() {
		if stale.Key == keep {
			continue
		}
		h.rooms.withRoom(stale.Key, false, func(rm *Room) {
			if _, ok := rm.waiting.remove(id); ok {
				h.emit(rm.admin, EventUserWaiting, rm.waiting.snapshot())
			}
		})
	}
}
