package signaling

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitingQueue(t *testing.T) {
	req := require.New(t)
	var q WaitingQueue

	req.NotNil(q.snapshot())
	req.True(q.push(Participant{ID: "a", Username: "alice"}))
	req.True(q.push(Participant{ID: "b", Username: "bob"}))
	req.False(q.push(Participant{ID: "a", Username: "alice again"}))
	req.Equal(2, q.Len())

	p, ok := q.remove("a")
	req.True(ok)
	req.Equal("alice", p.Username)
	_, ok = q.remove("a")
	req.False(ok)

	req.Equal([]Participant{{ID: "b", Username: "bob"}}, q.snapshot())

	q.clear()
	req.Zero(q.Len())
	req.NotNil(q.snapshot())
}

func TestRoom_RequestEntry(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1", 0)

	req.Equal(entryDirect, rm.requestEntry(Participant{ID: "a"}))
	req.Equal("a", rm.admin)
	rm.addMember(Participant{ID: "a"})

	req.Equal(entryIgnored, rm.requestEntry(Participant{ID: "a"}))
	req.Equal(entryQueued, rm.requestEntry(Participant{ID: "b"}))
	req.Equal(entryQueued, rm.requestEntry(Participant{ID: "b"}))
	req.Equal(1, rm.waiting.Len())
}

func TestRoom_AdmitRequiresAdmin(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1", 0)
	rm.requestEntry(Participant{ID: "a"})
	rm.addMember(Participant{ID: "a"})
	rm.requestEntry(Participant{ID: "b", Username: "bob"})
	rm.requestEntry(Participant{ID: "c", Username: "carol"})

	_, ok := rm.admit("b", "c")
	req.False(ok)
	_, ok = rm.reject("", "c")
	req.False(ok)
	req.Equal(2, rm.waiting.Len())

	p, ok := rm.admit("a", "b")
	req.True(ok)
	req.Equal("bob", p.Username)

	p, ok = rm.reject("a", "c")
	req.True(ok)
	req.Equal("carol", p.Username)
	req.Zero(rm.waiting.Len())
}

func TestRoom_HandOff(t *testing.T) {
	req := require.New(t)
	rm := newRoom("r1", 0)
	rm.admin = "a"
	rm.addMember(Participant{ID: "b"})
	rm.addMember(Participant{ID: "c"})
	rm.waiting.push(Participant{ID: "d"})

	_, ok := rm.handOff("b")
	req.False(ok)
	req.Equal("a", rm.admin)

	next, ok := rm.handOff("a")
	req.True(ok)
	req.Equal("b", next)
	req.Equal(1, rm.waiting.Len())

	rm.members = nil
	_, ok = rm.handOff("b")
	req.False(ok)
	req.Empty(rm.admin)
	req.Zero(rm.waiting.Len())
}
