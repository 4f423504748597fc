package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessage_Wire(t *testing.T) {
	req := require.New(t)

	msg, err := NewMessage(EventUserJoined, "a", []Participant{{ID: "a", Username: "alice"}})
	req.NoError(err)

	b, err := json.Marshal(msg)
	req.NoError(err)
	req.JSONEq(`{"event":"user-joined","args":["a",[{"id":"a","username":"alice"}]]}`, string(b))
}

func TestNewMessage_NoArgs(t *testing.T) {
	req := require.New(t)

	msg, err := NewMessage(EventYouAreAdmin)
	req.NoError(err)

	b, err := json.Marshal(msg)
	req.NoError(err)
	req.JSONEq(`{"event":"you-are-admin"}`, string(b))
}

func TestNewMessage_RawPassthrough(t *testing.T) {
	req := require.New(t)
	payload := json.RawMessage(`{"ice":{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host"}}`)

	msg, err := NewMessage(EventSignal, "a", payload)
	req.NoError(err)
	req.Equal(string(payload), string(msg.Args[1]))
}

func TestNewMessage_Unencodable(t *testing.T) {
	_, err := NewMessage(EventChatMessage, make(chan int))
	require.Error(t, err)
}

func TestMessage_Decode(t *testing.T) {
	req := require.New(t)

	var msg Message
	req.NoError(json.Unmarshal([]byte(`{"event":"toggle-hand","args":["r1",true,"extra"]}`), &msg))

	var key string
	var raised bool
	req.NoError(msg.Decode(&key, &raised))
	req.Equal("r1", key)
	req.True(raised)

	var a, b, c, d string
	req.ErrorIs(msg.Decode(&a, &b, &c, &d), ErrInvalidArgs)

	var n int
	req.ErrorIs(msg.Decode(&n), ErrInvalidArgs)
}
