package signaling

import (
	"slices"

	"github.com/samber/lo"
)

// WaitingQueue holds the connections asking a room's admin for entry, in
// arrival order. It lives inside the Room so the room lock covers it, but it
// is only ever changed by the admission methods in this file.
type WaitingQueue struct {
	entries []Participant
}

// push enqueues p unless its connection is already waiting.
func (q *WaitingQueue) push(p Participant) bool {
	if q.contains(p.ID) {
		return false
	}
	q.entries = append(q.entries, p)
	return true
}

func (q *WaitingQueue) remove(id string) (Participant, bool) {
	p, idx, ok := lo.FindIndexOf(q.entries, func(e Participant) bool {
		return e.ID == id
	})
	if !ok {
		return Participant{}, false
	}
	q.entries = slices.Delete(q.entries, idx, idx+1)
	return p, true
}

func (q *WaitingQueue) contains(id string) bool {
	return lo.ContainsBy(q.entries, func(e Participant) bool {
		return e.ID == id
	})
}

// snapshot never returns nil so the admin always receives a JSON array.
func (q *WaitingQueue) snapshot() []Participant {
	out := make([]Participant, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *WaitingQueue) clear() {
	q.entries = nil
}

func (q *WaitingQueue) Len() int {
	return len(q.entries)
}

type entryDecision int

const (
	// entryIgnored: the connection is already a member.
	entryIgnored entryDecision = iota
	// entryDirect: no admin yet, the joiner becomes admin and is admitted.
	entryDirect
	// entryQueued: the joiner waits for the admin.
	entryQueued
)

// requestEntry applies the join rule. Caller holds r.mu.
func (r *Room) requestEntry(p Participant) entryDecision {
	switch {
	case r.isMember(p.ID):
		return entryIgnored
	case r.admin == "":
		r.admin = p.ID
		return entryDirect
	default:
		r.waiting.push(p)
		return entryQueued
	}
}

func (r *Room) isAdmin(id string) bool {
	return id != "" && r.admin == id
}

// admit takes target off the queue when requester is the admin. Caller holds
// r.mu. Anything else leaves the room untouched.
func (r *Room) admit(requester, target string) (Participant, bool) {
	if !r.isAdmin(requester) {
		return Participant{}, false
	}
	return r.waiting.remove(target)
}

// reject has the same authorization rule as admit.
func (r *Room) reject(requester, target string) (Participant, bool) {
	if !r.isAdmin(requester) {
		return Participant{}, false
	}
	return r.waiting.remove(target)
}

// handOff reassigns the admin role after leaving has been removed from the
// members. The earliest joiner still present takes over. With nobody left the
// admin and the queue are cleared. Caller holds r.mu.
func (r *Room) handOff(leaving string) (string, bool) {
	if r.admin != leaving {
		return "", false
	}
	if len(r.members) == 0 {
		r.admin = ""
		r.waiting.clear()
		return "", false
	}
	r.admin = r.members[0].ID
	return r.admin, true
}
