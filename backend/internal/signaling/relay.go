//go:generate go run go.uber.org/mock/mockgen -source=relay.go -destination=../mocks/mock_relay.go -package=mocks

package signaling

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// Peer is the outbound half of a live connection.
//
// Emit must not block: it either queues msg for delivery or drops it and
// reports false. Close is idempotent.
type Peer interface {
	ID() string
	Emit(msg *Message) bool
	Close()
}

// Directory resolves connection ids to live peers.
type Directory interface {
	Lookup(id string) (Peer, bool)
}

// peerTable is the Directory of every registered connection.
type peerTable struct {
	mu    sync.RWMutex
	peers map[string]Peer
}

func newPeerTable() *peerTable {
	return &peerTable{peers: make(map[string]Peer)}
}

func (t *peerTable) add(p Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[p.ID()] = p
}

func (t *peerTable) remove(id string) (Peer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[id]
	if ok {
		delete(t.peers, id)
	}
	return p, ok
}

func (t *peerTable) Lookup(id string) (Peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[id]
	return p, ok
}

func (t *peerTable) all() []Peer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.Values(t.peers)
}

func (t *peerTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// Relay forwards negotiation payloads between two connections. It keeps no
// state of its own: delivery is at most once and a missing target is not an
// error.
type Relay struct {
	peers Directory
	log   *slog.Logger
}

func NewRelay(peers Directory, log *slog.Logger) *Relay {
	return &Relay{peers: peers, log: log}
}

// Relay delivers payload to "to" as signal(from, payload) and reports whether
// it was queued.
func (r *Relay) Relay(from, to string, payload json.RawMessage) bool {
	peer, ok := r.peers.Lookup(to)
	if !ok {
		r.log.Debug("Dropping signal for unknown peer", "from", from, "to", to)
		return false
	}

	msg, err := NewMessage(EventSignal, from, payload)
	if err != nil {
		r.log.Debug("Dropping unencodable signal", "from", from, "err", err)
		return false
	}

	if !peer.Emit(msg) {
		r.log.Debug("Signal not delivered", "from", from, "to", to)
		return false
	}
	return true
}
