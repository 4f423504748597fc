package probe

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/BioHazard786/Huddle/cli/internal/config"
	"github.com/BioHazard786/Huddle/cli/internal/signaling"
)

type sentSignal struct {
	to      string
	payload json.RawMessage
}

type recordingSignaler struct {
	mu   sync.Mutex
	sent []sentSignal
}

func (r *recordingSignaler) Send(event string, args ...any) error {
	if event != signaling.EventSignal {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentSignal{to: args[0].(string), payload: args[1].(json.RawMessage)})
	return nil
}

func (r *recordingSignaler) first() sentSignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[0]
}

func offlineConfig() *config.Config {
	return &config.Config{Domain: "localhost"}
}

func TestPayload_BrowserShape(t *testing.T) {
	req := require.New(t)

	raw, err := EncodePayload(Payload{SDP: &pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "v=0"}})
	req.NoError(err)

	// On the wire it is a JSON string containing the object.
	var inner string
	req.NoError(json.Unmarshal(raw, &inner))
	req.JSONEq(`{"sdp":{"type":"offer","sdp":"v=0"}}`, inner)

	p, err := DecodePayload(raw)
	req.NoError(err)
	req.Equal(pion.SDPTypeOffer, p.SDP.Type)
	req.Nil(p.ICE)
}

func TestPayload_BareObject(t *testing.T) {
	req := require.New(t)

	p, err := DecodePayload(json.RawMessage(`{"ice":{"candidate":"candidate:1 1 udp 2130706431 10.0.0.2 50000 typ host","sdpMid":"0"}}`))
	req.NoError(err)
	req.NotNil(p.ICE)
	req.Contains(p.ICE.Candidate, "typ host")

	_, err = DecodePayload(json.RawMessage(`{"other":1}`))
	req.ErrorIs(err, ErrUnexpectedSignal)

	_, err = DecodePayload(json.RawMessage(`[1,2]`))
	req.Error(err)
}

func TestFrame_PingPong(t *testing.T) {
	req := require.New(t)
	sent := time.Unix(1700000000, 0)

	ping := NewPing(7, "a", sent)
	data, err := EncodeFrame(ping)
	req.NoError(err)

	got, err := DecodeFrame(data)
	req.NoError(err)
	req.Equal(ping, got)

	pong := got.Pong("b")
	req.Equal(FramePong, pong.Type)
	req.Equal(uint32(7), pong.Seq)
	req.Equal("b", pong.From)
	req.Equal(42*time.Millisecond, pong.RTT(sent.Add(42*time.Millisecond)))

	_, err = DecodeFrame([]byte{0xc1})
	req.Error(err)
}

func TestSendFrame_ClosedChannel(t *testing.T) {
	require.ErrorIs(t, SendFrame(nil, NewPing(1, "a", time.Now())), ErrChannelNotOpen)
}

func TestProber_OfferSendsSDP(t *testing.T) {
	req := require.New(t)
	sig := &recordingSignaler{}
	p := New(offlineConfig(), sig, "me", false)
	t.Cleanup(func() { p.Close() })

	req.NoError(p.Offer(signaling.Participant{ID: "host", Username: "alice"}))

	// The description always goes out before any candidate.
	first := sig.first()
	req.Equal("host", first.to)
	payload, err := DecodePayload(first.payload)
	req.NoError(err)
	req.NotNil(payload.SDP)
	req.Equal(pion.SDPTypeOffer, payload.SDP.Type)
	req.Contains(payload.SDP.SDP, "m=application")
}

func TestProber_AnswersOffer(t *testing.T) {
	req := require.New(t)

	offerer := New(offlineConfig(), &recordingSignaler{}, "a", false)
	answerSig := &recordingSignaler{}
	answerer := New(offlineConfig(), answerSig, "b", false)
	t.Cleanup(func() {
		offerer.Close()
		answerer.Close()
	})

	offerSig := offerer.signal.(*recordingSignaler)
	req.NoError(offerer.Offer(signaling.Participant{ID: "b"}))
	req.NoError(answerer.HandleSignal("a", offerSig.first().payload))

	answer, err := DecodePayload(answerSig.first().payload)
	req.NoError(err)
	req.Equal(pion.SDPTypeAnswer, answer.SDP.Type)
	req.NoError(offerer.HandleSignal("b", answerSig.first().payload))
}

func TestProber_UnexpectedSignals(t *testing.T) {
	req := require.New(t)
	p := New(offlineConfig(), &recordingSignaler{}, "me", false)
	t.Cleanup(func() { p.Close() })

	answer, err := EncodePayload(Payload{SDP: &pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "v=0"}})
	req.NoError(err)
	req.ErrorIs(p.HandleSignal("stranger", answer), ErrUnexpectedSignal)

	ice, err := EncodePayload(Payload{ICE: &pion.ICECandidateInit{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host"}})
	req.NoError(err)
	req.ErrorIs(p.HandleSignal("stranger", ice), ErrUnexpectedSignal)
}

func TestProber_CandidatesWaitForRemoteDescription(t *testing.T) {
	req := require.New(t)
	p := New(offlineConfig(), &recordingSignaler{}, "me", false)
	t.Cleanup(func() { p.Close() })
	req.NoError(p.Offer(signaling.Participant{ID: "host"}))

	ice, err := EncodePayload(Payload{ICE: &pion.ICECandidateInit{Candidate: "candidate:1 1 udp 2130706431 10.0.0.1 5000 typ host"}})
	req.NoError(err)
	req.NoError(p.HandleSignal("host", ice))

	p.mu.Lock()
	defer p.mu.Unlock()
	req.Len(p.links["host"].pending, 1)
}

func TestProber_ForgetAndClose(t *testing.T) {
	req := require.New(t)
	p := New(offlineConfig(), &recordingSignaler{}, "me", false)

	req.NoError(p.Offer(signaling.Participant{ID: "a", Username: "alice"}))
	req.NoError(p.Offer(signaling.Participant{ID: "b", Username: "bob"}))

	p.Forget("a")
	p.Forget("a")
	r := <-p.Results()
	req.Equal(Result{PeerID: "a", Name: "alice", Status: StatusLeft}, r)

	rest := p.Close()
	req.Len(rest, 1)
	req.Equal("b", rest[0].PeerID)
	req.Equal(StatusTimeout, rest[0].Status)
}
