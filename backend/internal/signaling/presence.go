package signaling

import (
	"sync"
	"time"
)

// Presence records when each connection was admitted into a room, for
// session-duration accounting.
type Presence struct {
	mu     sync.Mutex
	joined map[string]time.Time
	now    func() time.Time
}

func NewPresence() *Presence {
	return &Presence{
		joined: make(map[string]time.Time),
		now:    time.Now,
	}
}

// MarkJoined stamps id with the current time.
func (p *Presence) MarkJoined(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joined[id] = p.now()
}

// Clear forgets id and returns how long it was present. Connections that
// never made it into a room have no record.
func (p *Presence) Clear(id string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.joined[id]
	if !ok {
		return 0, false
	}
	delete(p.joined, id)
	return p.now().Sub(at), true
}

func (p *Presence) Duration(id string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.joined[id]
	if !ok {
		return 0, false
	}
	return p.now().Sub(at), true
}

func (p *Presence) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.joined)
}
