package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/BioHazard786/Huddle/cli/internal/signaling"
)

type sent struct {
	event string
	args  []any
}

type fakeSender struct {
	sent []sent
}

func (f *fakeSender) Send(event string, args ...any) error {
	f.sent = append(f.sent, sent{event, args})
	return nil
}

func newRoom(t *testing.T) (*RoomModel, *fakeSender) {
	t.Helper()
	s := &fakeSender{}
	m := NewRoomModel(RoomOptions{
		Key:          "https://huddle.example/abc",
		Name:         "alice",
		Sender:       s,
		Events:       make(chan signaling.RoomEvent),
		Disconnected: make(chan struct{}),
	})
	return m, s
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"hello there", Command{Name: CmdChat, Text: "hello there"}},
		{"  /hand ", Command{Name: CmdHand}},
		{"/MUTE", Command{Name: CmdMute}},
		{"/quit", Command{Name: CmdQuit}},
		{"/admit 2", Command{Name: CmdAdmit, Arg: 2}},
		{"/reject 1", Command{Name: CmdReject, Arg: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCommand(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "/", "/admit", "/admit x", "/admit 0", "/reject 1 2", "/dance"} {
		_, err := ParseCommand(bad)
		require.Error(t, err, bad)
	}
}

func TestRoomModel_HostFlow(t *testing.T) {
	req := require.New(t)
	m, s := newRoom(t)

	m.apply(signaling.MemberJoined{ID: "me", Members: []signaling.Participant{{ID: "me", Username: "alice"}}})
	req.True(m.IsHost())

	m.apply(signaling.QueueUpdate{Queue: []signaling.Participant{{ID: "g1", Username: "bob"}, {ID: "g2", Username: "carol"}}})
	req.Contains(m.View(), "carol")

	m.execute("/admit 2")
	m.execute("/reject 1")
	m.execute("/admit 3")

	req.Equal([]sent{
		{signaling.EventAdmitUser, []any{"https://huddle.example/abc", "g2"}},
		{signaling.EventRejectUser, []any{"https://huddle.example/abc", "g1"}},
	}, s.sent)
	req.Contains(m.status, "#3")
}

func TestRoomModel_GuestFlow(t *testing.T) {
	req := require.New(t)
	m, s := newRoom(t)

	roster := []signaling.Participant{{ID: "host", Username: "bob"}, {ID: "me", Username: "alice"}}
	m.apply(signaling.MemberJoined{ID: "me", Members: roster})
	req.False(m.IsHost())

	m.execute("/admit 1")
	req.Empty(s.sent)
	req.Equal("Only the host can do that", m.status)

	m.execute("hi all")
	m.execute("/hand")
	m.apply(signaling.HandUpdate{ID: "me", Raised: true})
	m.execute("/hand")
	m.execute("/mute")

	req.Equal([]sent{
		{signaling.EventChat, []any{"hi all", "alice"}},
		{signaling.EventToggleHand, []any{"https://huddle.example/abc", true}},
		{signaling.EventToggleHand, []any{"https://huddle.example/abc", false}},
		{signaling.EventToggleMute, []any{"https://huddle.example/abc", true}},
	}, s.sent)

	// The host leaves and this connection is promoted.
	m.apply(signaling.MemberLeft{ID: "host"})
	req.Equal("bob left", m.status)
	req.Len(m.Members(), 1)
	m.apply(signaling.PromotedToHost{})
	req.True(m.IsHost())
}

func TestRoomModel_ChatAndToggles(t *testing.T) {
	req := require.New(t)
	m, _ := newRoom(t)

	m.apply(signaling.MemberJoined{ID: "me", Members: []signaling.Participant{{ID: "me", Username: "alice"}}})
	m.apply(signaling.MemberJoined{ID: "g", Members: []signaling.Participant{{ID: "me", Username: "alice"}, {ID: "g", Username: "bob"}}})
	req.Equal("bob joined", m.status)

	m.apply(signaling.ChatMessage{Body: "earlier", Sender: "bob", SenderID: "g"})
	m.apply(signaling.HandUpdate{ID: "g", Raised: true})
	m.apply(signaling.MuteUpdate{ID: "g", Muted: true})

	view := m.View()
	req.Contains(view, "earlier")
	req.Contains(view, IconHand)
	req.Contains(view, IconMuted)

	for range maxChatLines + 5 {
		m.apply(signaling.ChatMessage{Body: "x", Sender: "bob", SenderID: "g"})
	}
	req.Len(m.chat, maxChatLines)
}

func TestRoomModel_QuitAndDisconnect(t *testing.T) {
	req := require.New(t)

	m, _ := newRoom(t)
	m.input.SetValue("/quit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	req.NotNil(cmd)
	req.NoError(m.Err())
	req.Empty(m.View())

	m, _ = newRoom(t)
	_, cmd = m.Update(disconnectedMsg{})
	req.NotNil(cmd)
	req.ErrorIs(m.Err(), ErrDisconnected)
}

func TestRoomModel_ListenDeliversEvents(t *testing.T) {
	events := make(chan signaling.RoomEvent, 1)
	m := NewRoomModel(RoomOptions{Sender: &fakeSender{}, Events: events, Disconnected: make(chan struct{})})
	events <- signaling.PromotedToHost{}

	done := make(chan tea.Msg, 1)
	go func() { done <- m.listen()() }()

	select {
	case msg := <-done:
		require.Equal(t, roomEventMsg{signaling.PromotedToHost{}}, msg)
	case <-time.After(time.Second):
		t.Fatal("listen did not return")
	}
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "12s", FormatDuration(12*time.Second))
	require.Equal(t, "3m05s", FormatDuration(3*time.Minute+5*time.Second))
	require.Equal(t, "1h02m", FormatDuration(time.Hour+2*time.Minute+40*time.Second))
}

func TestTruncateString(t *testing.T) {
	require.Equal(t, "short", TruncateString("short", 10))
	require.Equal(t, "abcd…", TruncateString("abcdefgh", 5))
}
