package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HUDDLE_DOMAIN", "HUDDLE_INSECURE", "STUN_SERVER", "TURN_SERVER", "TURN_USERNAME", "TURN_PASSWORD"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	cfg, err := Load(Options{})
	req.NoError(err)

	req.Equal(DefaultDomain, cfg.Domain)
	req.False(cfg.Insecure)
	req.Equal("wss://huddle.qzz.io/ws", cfg.WebSocketURL)
	req.Equal("https://huddle.qzz.io/stats", cfg.StatsURL())
	req.Equal("https://huddle.qzz.io/abc123", cfg.MeetingLink("abc123"))
	req.Equal([]string{DefaultSTUN}, cfg.GetSTUNServers())
	req.Nil(cfg.GetTURNServers())
}

func TestLoad_EnvThenFlags(t *testing.T) {
	req := require.New(t)
	clearEnv(t)
	t.Setenv("HUDDLE_DOMAIN", "localhost:8080")
	t.Setenv("HUDDLE_INSECURE", "true")
	t.Setenv("TURN_SERVER", "turn:relay.example")
	t.Setenv("TURN_USERNAME", "env-user")

	cfg, err := Load(Options{TURNUser: "flag-user", TURNPass: "secret"})
	req.NoError(err)

	req.Equal("ws://localhost:8080/ws", cfg.WebSocketURL)
	req.Equal("http://localhost:8080/stats", cfg.StatsURL())
	req.Equal([]string{
		"turn:relay.example:3478?transport=udp",
		"turn:relay.example:3478?transport=tcp",
	}, cfg.GetTURNServers())

	user, pass := cfg.GetTURNCredentials()
	req.Equal("flag-user", user)
	req.Equal("secret", pass)

	cfg, err = Load(Options{Domain: "meet.example"})
	req.NoError(err)
	req.Equal("meet.example", cfg.Domain)
}

func TestLoad_RejectsBadInput(t *testing.T) {
	clearEnv(t)

	_, err := Load(Options{Domain: "https://meet.example"})
	require.Error(t, err)

	t.Setenv("HUDDLE_INSECURE", "sometimes")
	_, err = Load(Options{})
	require.Error(t, err)
}
