package probe

import (
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Frame types exchanged on the probe data channel.
const (
	FramePing = "ping"
	FramePong = "pong"
)

// Frame is one data-channel message. A pong echoes the ping's Seq and SentAt
// so the pinger can compute the round trip without keeping state.
type Frame struct {
	Type   string `msgpack:"type"`
	Seq    uint32 `msgpack:"seq"`
	SentAt int64  `msgpack:"sentAt"`
	From   string `msgpack:"from,omitempty"`
}

func NewPing(seq uint32, from string, now time.Time) Frame {
	return Frame{Type: FramePing, Seq: seq, SentAt: now.UnixNano(), From: from}
}

// Pong answers f.
func (f Frame) Pong(from string) Frame {
	return Frame{Type: FramePong, Seq: f.Seq, SentAt: f.SentAt, From: from}
}

// RTT is the round trip of a pong received at now.
func (f Frame) RTT(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, f.SentAt))
}

func EncodeFrame(f Frame) ([]byte, error) {
	b, err := msgpack.Marshal(f)
	if err != nil {
		return nil, NewError("marshal frame", err)
	}
	return b, nil
}

func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return Frame{}, NewError("parse frame", err)
	}
	return f, nil
}

// SendFrame writes f to an open data channel.
func SendFrame(dc *pion.DataChannel, f Frame) error {
	if dc == nil || dc.ReadyState() != pion.DataChannelStateOpen {
		return ErrChannelNotOpen
	}
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	return dc.Send(data)
}
