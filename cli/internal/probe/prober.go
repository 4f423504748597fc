package probe

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/samber/lo"

	"github.com/BioHazard786/Huddle/cli/internal/config"
	"github.com/BioHazard786/Huddle/cli/internal/signaling"
)

// Signaler sends events through the coordinator.
type Signaler interface {
	Send(event string, args ...any) error
}

type Status string

const (
	StatusConnected Status = "connected"
	StatusFailed    Status = "failed"
	StatusLeft      Status = "left"
	StatusTimeout   Status = "timeout"
)

// Result is the outcome for one remote member. RTT is zero when the remote
// connected but never answered a ping, which is what browser peers do.
type Result struct {
	PeerID string
	Name   string
	Status Status
	RTT    time.Duration
	Err    error
}

// Prober negotiates one peer connection per remote member through the relay
// and measures a data-channel round trip on each.
type Prober struct {
	cfg        *config.Config
	signal     Signaler
	self       string
	forceRelay bool
	now        func() time.Time
	log        *slog.Logger

	mu    sync.Mutex
	links map[string]*link

	results chan Result
}

type link struct {
	id       string
	name     string
	pc       *pion.PeerConnection
	pending  []pion.ICECandidateInit
	remote   bool
	local    []pion.ICECandidateInit
	sentDesc bool
	state    pion.ICEConnectionState
	reported bool
}

func New(cfg *config.Config, sig Signaler, self string, forceRelay bool) *Prober {
	return &Prober{
		cfg:        cfg,
		signal:     sig,
		self:       self,
		forceRelay: forceRelay,
		now:        time.Now,
		log:        slog.Default().With("component", "probe"),
		links:      make(map[string]*link),
		results:    make(chan Result, 64),
	}
}

// Results streams outcomes as they are known. Links still open when Close
// is called are reported by Close instead.
func (p *Prober) Results() <-chan Result {
	return p.results
}

// Offer starts negotiation with a member, as a browser joiner would.
func (p *Prober) Offer(m signaling.Participant) error {
	l, err := p.newLink(m.ID, m.Username)
	if err != nil {
		return err
	}

	dc, err := createDataChannel(l.pc)
	if err != nil {
		return err
	}
	p.watchChannel(l, dc)

	desc, err := createOffer(l.pc)
	if err != nil {
		return err
	}
	return p.sendDescription(l, desc)
}

// HandleSignal applies a relayed payload from another member.
func (p *Prober) HandleSignal(from string, raw json.RawMessage) error {
	payload, err := DecodePayload(raw)
	if err != nil {
		return err
	}

	p.mu.Lock()
	l := p.links[from]
	p.mu.Unlock()

	if payload.SDP != nil {
		switch payload.SDP.Type {
		case pion.SDPTypeOffer:
			if l == nil {
				if l, err = p.newLink(from, ""); err != nil {
					return err
				}
			}
			answer, err := createAnswer(l.pc, *payload.SDP)
			if err != nil {
				return err
			}
			p.flushCandidates(l)
			if err := p.sendDescription(l, answer); err != nil {
				return err
			}

		case pion.SDPTypeAnswer:
			if l == nil {
				return NewPeerError("apply answer", from, ErrUnexpectedSignal)
			}
			if err := l.pc.SetRemoteDescription(*payload.SDP); err != nil {
				return NewPeerError("set remote description", from, err)
			}
			p.flushCandidates(l)

		default:
			return WrapError("handle signal", ErrUnexpectedSignal, payload.SDP.Type.String())
		}
	}

	if payload.ICE != nil {
		if l == nil {
			return NewPeerError("add ICE candidate", from, ErrUnexpectedSignal)
		}
		return p.addCandidate(l, *payload.ICE)
	}
	return nil
}

// Forget closes the link to a member that left the meeting.
func (p *Prober) Forget(id string) {
	p.mu.Lock()
	l, ok := p.links[id]
	if ok {
		delete(p.links, id)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	p.report(l, Result{Status: StatusLeft})
	l.pc.Close()
}

// Close tears down every link and returns results for those that never
// reported: connected without a pong, or timed out.
func (p *Prober) Close() []Result {
	p.mu.Lock()
	links := lo.Values(p.links)
	p.links = make(map[string]*link)
	p.mu.Unlock()

	var rest []Result
	for _, l := range links {
		p.mu.Lock()
		reported := l.reported
		l.reported = true
		state := l.state
		p.mu.Unlock()

		if !reported {
			r := Result{PeerID: l.id, Name: l.name, Status: StatusTimeout}
			if state == pion.ICEConnectionStateConnected || state == pion.ICEConnectionStateCompleted {
				r.Status = StatusConnected
			}
			rest = append(rest, r)
		}
		l.pc.Close()
	}
	return rest
}

func (p *Prober) newLink(id, name string) (*link, error) {
	pc, err := NewPeerConnection(p.cfg, p.forceRelay)
	if err != nil {
		return nil, err
	}
	l := &link{id: id, name: name, pc: pc}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		cand := c.ToJSON()
		p.mu.Lock()
		if !l.sentDesc {
			l.local = append(l.local, cand)
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		if err := p.send(id, Payload{ICE: &cand}); err != nil {
			p.log.Debug("ICE candidate not sent", "peer", id, "err", err)
		}
	})

	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		p.mu.Lock()
		l.state = state
		p.mu.Unlock()
		p.log.Debug("ICE state", "peer", id, "state", state.String())

		if state == pion.ICEConnectionStateFailed {
			p.report(l, Result{Status: StatusFailed, Err: NewPeerError("connect", id, ErrTimeout)})
		}
	})

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() == DataChannelLabel {
			p.watchChannel(l, dc)
		}
	})

	p.mu.Lock()
	if old, ok := p.links[id]; ok {
		old.pc.Close()
	}
	p.links[id] = l
	p.mu.Unlock()
	return l, nil
}

// watchChannel pings once the channel opens and answers the other side's
// pings. The first pong settles the link's result.
func (p *Prober) watchChannel(l *link, dc *pion.DataChannel) {
	dc.OnOpen(func() {
		if err := SendFrame(dc, NewPing(1, p.self, p.now())); err != nil {
			p.log.Debug("ping not sent", "peer", l.id, "err", err)
		}
	})

	dc.OnMessage(func(msg pion.DataChannelMessage) {
		f, err := DecodeFrame(msg.Data)
		if err != nil {
			p.log.Debug("bad probe frame", "peer", l.id, "err", err)
			return
		}
		switch f.Type {
		case FramePing:
			if err := SendFrame(dc, f.Pong(p.self)); err != nil {
				p.log.Debug("pong not sent", "peer", l.id, "err", err)
			}
		case FramePong:
			p.report(l, Result{Status: StatusConnected, RTT: f.RTT(p.now())})
		}
	})
}

func (p *Prober) report(l *link, r Result) {
	p.mu.Lock()
	if l.reported {
		p.mu.Unlock()
		return
	}
	l.reported = true
	r.PeerID, r.Name = l.id, l.name
	p.mu.Unlock()

	select {
	case p.results <- r:
	default:
		p.log.Warn("result dropped", "peer", l.id)
	}
}

func (p *Prober) addCandidate(l *link, c pion.ICECandidateInit) error {
	p.mu.Lock()
	if !l.remote {
		l.pending = append(l.pending, c)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := l.pc.AddICECandidate(c); err != nil {
		return NewPeerError("add ICE candidate", l.id, err)
	}
	return nil
}

// flushCandidates applies candidates that arrived before the remote
// description.
func (p *Prober) flushCandidates(l *link) {
	p.mu.Lock()
	l.remote = true
	pending := l.pending
	l.pending = nil
	p.mu.Unlock()

	for _, c := range pending {
		if err := l.pc.AddICECandidate(c); err != nil {
			p.log.Debug("buffered candidate rejected", "peer", l.id, "err", err)
		}
	}
}

// sendDescription relays desc and then any local candidates gathered before
// it, so the remote never sees a candidate ahead of the description.
func (p *Prober) sendDescription(l *link, desc *pion.SessionDescription) error {
	if err := p.send(l.id, Payload{SDP: desc}); err != nil {
		return err
	}

	p.mu.Lock()
	l.sentDesc = true
	local := l.local
	l.local = nil
	p.mu.Unlock()

	for i := range local {
		if err := p.send(l.id, Payload{ICE: &local[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prober) send(to string, payload Payload) error {
	raw, err := EncodePayload(payload)
	if err != nil {
		return err
	}
	return p.signal.Send(signaling.EventSignal, to, raw)
}
