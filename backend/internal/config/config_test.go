package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Load also looks for ./.env, so every test runs from an empty directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	chdirTemp(t)

	cfg, err := Load(Options{})
	req.NoError(err)

	req.Equal(":8080", cfg.Addr)
	req.Equal(65536, cfg.ReadBufferSize)
	req.Equal(256, cfg.SendBufferSize)
	req.EqualValues(65536, cfg.MaxMessageSize)
	req.Empty(cfg.AllowedOrigins)
	req.False(cfg.EnableStats)
	req.Zero(cfg.MaxChatHistory)
	req.Equal(15*time.Second, cfg.ShutdownTimeout)
	req.Equal("info", cfg.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	req := require.New(t)
	chdirTemp(t)
	t.Setenv("HUDDLE_ADDR", ":9000")
	t.Setenv("HUDDLE_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("HUDDLE_ENABLE_STATS", "true")
	t.Setenv("HUDDLE_MAX_CHAT_HISTORY", "100")
	t.Setenv("HUDDLE_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load(Options{})
	req.NoError(err)

	req.Equal(":9000", cfg.Addr)
	req.Equal([]string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	req.True(cfg.EnableStats)
	req.Equal(100, cfg.MaxChatHistory)
	req.Equal(3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FlagsWin(t *testing.T) {
	req := require.New(t)
	chdirTemp(t)
	t.Setenv("HUDDLE_ADDR", ":9000")
	t.Setenv("HUDDLE_LOG_LEVEL", "warn")
	t.Setenv("HUDDLE_MAX_CHAT_HISTORY", "100")
	t.Setenv("HUDDLE_ENABLE_STATS", "true")

	zero := 0
	off := false
	cfg, err := Load(Options{
		Addr:           ":7000",
		LogLevel:       "debug",
		MaxChatHistory: &zero,
		EnableStats:    &off,
		AllowedOrigins: []string{"https://c.example"},
	})
	req.NoError(err)

	req.Equal(":7000", cfg.Addr)
	req.Equal("debug", cfg.LogLevel)
	req.Zero(cfg.MaxChatHistory)
	req.False(cfg.EnableStats)
	req.Equal([]string{"https://c.example"}, cfg.AllowedOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	req := require.New(t)
	dir := chdirTemp(t)
	path := filepath.Join(dir, "huddle.env")
	req.NoError(os.WriteFile(path, []byte("HUDDLE_ADDR=:6000\nHUDDLE_LOG_LEVEL=error\n"), 0o600))

	// godotenv sets process variables directly; register them for cleanup.
	t.Setenv("HUDDLE_ADDR", "")
	os.Unsetenv("HUDDLE_ADDR")
	t.Setenv("HUDDLE_LOG_LEVEL", "")
	os.Unsetenv("HUDDLE_LOG_LEVEL")

	cfg, err := Load(Options{EnvFile: path})
	req.NoError(err)
	req.Equal(":6000", cfg.Addr)
	req.Equal("error", cfg.LogLevel)
}

func TestLoad_DotEnvInWorkingDir(t *testing.T) {
	req := require.New(t)
	dir := chdirTemp(t)
	req.NoError(os.WriteFile(filepath.Join(dir, ".env"), []byte("HUDDLE_SEND_BUFFER_SIZE=32\n"), 0o600))
	t.Setenv("HUDDLE_SEND_BUFFER_SIZE", "")
	os.Unsetenv("HUDDLE_SEND_BUFFER_SIZE")

	cfg, err := Load(Options{})
	req.NoError(err)
	req.Equal(32, cfg.SendBufferSize)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load(Options{EnvFile: "does-not-exist.env"})
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	req := require.New(t)
	chdirTemp(t)

	_, err := Load(Options{LogLevel: "loud"})
	req.ErrorContains(err, "invalid config")

	negative := -1
	_, err = Load(Options{MaxChatHistory: &negative})
	req.Error(err)

	t.Setenv("HUDDLE_SEND_BUFFER_SIZE", "lots")
	_, err = Load(Options{})
	req.ErrorContains(err, "read environment")
}
