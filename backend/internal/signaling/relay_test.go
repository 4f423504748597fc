package signaling_test

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/BioHazard786/Huddle/backend/internal/mocks"
	"github.com/BioHazard786/Huddle/backend/internal/signaling"
)

func TestRelay_DeliversVerbatim(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	target := mocks.NewMockPeer(ctrl)
	dir := mocks.NewMockDirectory(ctrl)
	payload := json.RawMessage(`{"sdp":{"type":"answer","sdp":"v=0\r\n"}}`)

	dir.EXPECT().Lookup("b").Return(target, true).Times(1)
	target.EXPECT().Emit(gomock.Any()).DoAndReturn(func(msg *signaling.Message) bool {
		req.Equal(signaling.EventSignal, msg.Event)
		var from string
		var got json.RawMessage
		req.NoError(msg.Decode(&from, &got))
		req.Equal("a", from)
		req.Equal(string(payload), string(got))
		return true
	}).Times(1)

	relay := signaling.NewRelay(dir, slog.New(slog.DiscardHandler))
	req.True(relay.Relay("a", "b", payload))
}

func TestRelay_UnknownTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockDirectory(ctrl)
	dir.EXPECT().Lookup("ghost").Return(nil, false).Times(1)

	relay := signaling.NewRelay(dir, slog.New(slog.DiscardHandler))
	require.False(t, relay.Relay("a", "ghost", json.RawMessage(`{}`)))
}

func TestRelay_FullPeerDrops(t *testing.T) {
	ctrl := gomock.NewController(t)
	target := mocks.NewMockPeer(ctrl)
	dir := mocks.NewMockDirectory(ctrl)

	dir.EXPECT().Lookup("b").Return(target, true).Times(1)
	target.EXPECT().Emit(gomock.Any()).Return(false).Times(1)

	relay := signaling.NewRelay(dir, slog.New(slog.DiscardHandler))
	require.False(t, relay.Relay("a", "b", json.RawMessage(`{"ice":null}`)))
}
