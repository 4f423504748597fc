package signaling

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

var ErrRoomNotFound = errors.New("room not found")

// Registry is the authoritative map of room keys to live rooms, plus a
// back-reference from each member connection to the room it belongs to.
//
// Lock order is room then registry: mu is taken briefly while a room lock is
// held, and is never held while waiting for a room lock.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	byConn  map[string]string
	maxChat int
}

// NewRegistry creates an empty registry. maxChat caps each room's chat log;
// zero keeps it unbounded.
func NewRegistry(maxChat int) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		byConn:  make(map[string]string),
		maxChat: maxChat,
	}
}

func (g *Registry) room(key string, create bool) *Room {
	if !create {
		g.mu.RLock()
		defer g.mu.RUnlock()
		return g.rooms[key]
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	rm, ok := g.rooms[key]
	if !ok {
		rm = newRoom(key, g.maxChat)
		g.rooms[key] = rm
	}
	return rm
}

// withRoom runs fn with the room's lock held, creating the room first when
// create is set. It reports false if the room does not exist. A room that fn
// leaves without members is closed and dropped before the lock is released,
// so an empty room is never observable.
func (g *Registry) withRoom(key string, create bool, fn func(rm *Room)) bool {
	for {
		rm := g.room(key, create)
		if rm == nil {
			return false
		}

		rm.mu.Lock()
		if rm.state == roomClosed {
			// Lost a race with teardown; the map no longer holds rm.
			rm.mu.Unlock()
			continue
		}
		fn(rm)
		if len(rm.members) == 0 {
			g.retire(rm)
		}
		rm.mu.Unlock()
		return true
	}
}

// retire closes rm and removes it from the map. Caller holds rm.mu.
func (g *Registry) retire(rm *Room) {
	rm.state = roomClosed
	rm.admin = ""
	rm.waiting.clear()
	rm.chat = nil

	g.mu.Lock()
	if g.rooms[rm.Key] == rm {
		delete(g.rooms, rm.Key)
	}
	g.mu.Unlock()
}

// join appends p to rm and indexes it. Caller holds rm.mu.
func (g *Registry) join(rm *Room, p Participant) {
	rm.addMember(p)
	g.mu.Lock()
	g.byConn[p.ID] = rm.Key
	g.mu.Unlock()
}

// leave removes id from rm and its index entry. Caller holds rm.mu.
func (g *Registry) leave(rm *Room, id string) int {
	idx := rm.removeMember(id)
	if idx < 0 {
		return -1
	}
	g.mu.Lock()
	if g.byConn[id] == rm.Key {
		delete(g.byConn, id)
	}
	g.mu.Unlock()
	return idx
}

// EnsureRoom returns the room for key, creating an empty one if needed.
func (g *Registry) EnsureRoom(key string) *Room {
	return g.room(key, true)
}

// AddMember appends a participant to an existing room. Adding a connection
// that is already a member is a no-op.
func (g *Registry) AddMember(key, id, name string) error {
	ok := g.withRoom(key, false, func(rm *Room) {
		if rm.isMember(id) {
			return
		}
		g.join(rm, Participant{ID: id, Username: name})
	})
	if !ok {
		return fmt.Errorf("add %s to %q: %w", id, key, ErrRoomNotFound)
	}
	return nil
}

// RemoveMember removes id from the room and returns the join position it
// held, or -1 if it was not there. The room is deleted once empty; if id was
// the admin the earliest remaining member takes over.
func (g *Registry) RemoveMember(key, id string) int {
	idx := -1
	g.withRoom(key, false, func(rm *Room) {
		idx = g.leave(rm, id)
		if idx >= 0 {
			rm.handOff(id)
		}
	})
	return idx
}

// AppendChat adds an entry to the room's chat log. Unknown rooms are ignored.
func (g *Registry) AppendChat(key string, e ChatEntry) {
	g.withRoom(key, false, func(rm *Room) {
		rm.appendChat(e)
	})
}

// MembersOf returns a snapshot of the room's members, nil if it is absent.
func (g *Registry) MembersOf(key string) []Participant {
	var members []Participant
	g.withRoom(key, false, func(rm *Room) {
		members = rm.snapshot()
	})
	return members
}

// FindRoomContaining returns the key of the room id is a member of.
func (g *Registry) FindRoomContaining(id string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	key, ok := g.byConn[id]
	return key, ok
}

// Lookup returns the live room for key.
func (g *Registry) Lookup(key string) (*Room, bool) {
	rm := g.room(key, false)
	return rm, rm != nil
}

// Rooms returns the live rooms in no particular order.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return lo.Values(g.rooms)
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
