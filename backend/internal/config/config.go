package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable, e.g. HUDDLE_ADDR.
const EnvPrefix = "HUDDLE"

// Config holds the signaling server configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `envconfig:"ADDR" default:":8080" validate:"required"`

	// Websocket upgrader buffers.
	ReadBufferSize  int `envconfig:"READ_BUFFER_SIZE" default:"65536" validate:"gte=1024"`
	WriteBufferSize int `envconfig:"WRITE_BUFFER_SIZE" default:"65536" validate:"gte=1024"`

	// SendBufferSize is the per-connection outbound queue length.
	SendBufferSize int `envconfig:"SEND_BUFFER_SIZE" default:"256" validate:"gte=1"`

	// MaxMessageSize bounds one inbound frame, 64 KB is enough for SDP.
	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"65536" validate:"gte=1024"`

	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	// EnableStats serves /stats. The endpoint is unauthenticated, so it is
	// off unless asked for.
	EnableStats bool `envconfig:"ENABLE_STATS" default:"false"`

	// MaxChatHistory caps the per-room replay log. Zero keeps everything.
	MaxChatHistory int `envconfig:"MAX_CHAT_HISTORY" default:"0" validate:"gte=0"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s" validate:"gt=0"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// Options carries command-line overrides. Zero values mean "not set".
type Options struct {
	EnvFile        string
	Addr           string
	AllowedOrigins []string
	MaxChatHistory *int
	EnableStats    *bool
	LogLevel       string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables, including a .env file if present
// 3. Defaults from the struct tags - lowest priority
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if len(opts.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = opts.AllowedOrigins
	}
	if opts.MaxChatHistory != nil {
		cfg.MaxChatHistory = *opts.MaxChatHistory
	}
	if opts.EnableStats != nil {
		cfg.EnableStats = *opts.EnableStats
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads an explicit env file, or ./.env when it exists. Values
// already present in the environment win.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
