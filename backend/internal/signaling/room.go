package signaling

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Participant is a connection together with the display name it joined with.
// Admitted members and waiting entries share this shape on the wire.
type Participant struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ChatEntry is one accepted chat message, kept for replay to later joiners.
type ChatEntry struct {
	Sender   string
	Body     string
	SenderID string
}

type roomState int

const (
	roomActive roomState = iota
	roomClosed
)

// Room is one live call session.
//
// Every field below mu is guarded by it. Lowercase methods expect the caller
// to hold mu; exported methods take it themselves. A room is created active
// and closed exactly once, when its last member leaves; a closed room is
// never reopened, a later join for the same key gets a fresh Room.
type Room struct {
	Key string

	mu      sync.Mutex
	state   roomState
	members []Participant
	admin   string
	waiting WaitingQueue
	chat    []ChatEntry
	maxChat int
}

func newRoom(key string, maxChat int) *Room {
	return &Room{Key: key, maxChat: maxChat}
}

func (r *Room) indexOf(id string) int {
	_, idx, ok := lo.FindIndexOf(r.members, func(p Participant) bool {
		return p.ID == id
	})
	if !ok {
		return -1
	}
	return idx
}

func (r *Room) isMember(id string) bool {
	return r.indexOf(id) >= 0
}

func (r *Room) addMember(p Participant) {
	r.members = append(r.members, p)
}

// removeMember drops id and returns the position it held, or -1.
func (r *Room) removeMember(id string) int {
	idx := r.indexOf(id)
	if idx < 0 {
		return -1
	}
	r.members = slices.Delete(r.members, idx, idx+1)
	return idx
}

func (r *Room) appendChat(e ChatEntry) {
	r.chat = append(r.chat, e)
	if r.maxChat > 0 && len(r.chat) > r.maxChat {
		r.chat = slices.Clone(r.chat[len(r.chat)-r.maxChat:])
	}
}

func (r *Room) snapshot() []Participant {
	return slices.Clone(r.members)
}

// Members returns the current members in join order.
func (r *Room) Members() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Admin returns the connection id of the room's host, empty if none.
func (r *Room) Admin() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admin
}

// Waiting returns the admission queue in arrival order.
func (r *Room) Waiting() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting.snapshot()
}

// History returns the chat log in the order it was accepted.
func (r *Room) History() []ChatEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.chat)
}

// Closed reports whether the room has been torn down.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == roomClosed
}

// RoomStats is the read-only view served by the stats endpoint. It carries
// no connection ids.
type RoomStats struct {
	Key                 string  `json:"key"`
	Members             int     `json:"members"`
	Waiting             int     `json:"waiting"`
	HasAdmin            bool    `json:"has_admin"`
	ChatMessages        int     `json:"chat_messages"`
	OldestMemberSeconds float64 `json:"oldest_member_seconds"`
}

// Stats summarises the room. Session lengths come from presence.
func (r *Room) Stats(presence *Presence) RoomStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest time.Duration
	for _, m := range r.members {
		if d, ok := presence.Duration(m.ID); ok && d > oldest {
			oldest = d
		}
	}
	return RoomStats{
		Key:                 r.Key,
		Members:             len(r.members),
		Waiting:             r.waiting.Len(),
		HasAdmin:            r.admin != "",
		ChatMessages:        len(r.chat),
		OldestMemberSeconds: oldest.Seconds(),
	}
}
