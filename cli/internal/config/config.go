package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Default configuration values (production)
const (
	DefaultDomain   = "huddle.qzz.io"
	DefaultSTUN     = "stun:stun.l.google.com:19302"
	DefaultTURN     = "" // Optional, empty by default
	DefaultTURNUser = ""
	DefaultTURNPass = ""
)

// Config holds application configuration
type Config struct {
	// Domain is the coordinator's host, with an optional port.
	Domain string

	// Insecure switches to ws:// and http:// for local servers.
	Insecure bool

	// WebSocketURL is constructed from domain
	WebSocketURL string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain     string
	Insecure   bool
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := firstNonEmpty(opts.Domain, os.Getenv("HUDDLE_DOMAIN"), DefaultDomain)
	domain = strings.TrimSuffix(domain, "/")
	if strings.Contains(domain, "://") || strings.ContainsAny(domain, "/ ") {
		return nil, fmt.Errorf("domain must be a bare host, got %q", domain)
	}

	insecure := opts.Insecure
	if !insecure {
		if v := os.Getenv("HUDDLE_INSECURE"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("HUDDLE_INSECURE: %w", err)
			}
			insecure = b
		}
	}

	cfg := &Config{
		Domain:     domain,
		Insecure:   insecure,
		STUNServer: firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER"), DefaultTURN),
		TURNUser:   firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME"), DefaultTURNUser),
		TURNPass:   firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD"), DefaultTURNPass),
	}
	cfg.WebSocketURL = cfg.url(cfg.wsScheme(), "/ws")
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) wsScheme() string {
	if c.Insecure {
		return "ws"
	}
	return "wss"
}

func (c *Config) httpScheme() string {
	if c.Insecure {
		return "http"
	}
	return "https"
}

func (c *Config) url(scheme, path string) string {
	u := url.URL{Scheme: scheme, Host: c.Domain, Path: path}
	return u.String()
}

// StatsURL is the coordinator's room snapshot endpoint.
func (c *Config) StatsURL() string {
	return c.url(c.httpScheme(), "/stats")
}

// MeetingLink returns the shareable link for a meeting code. Browser clients
// join with this full link as the room key, so the CLI does the same.
func (c *Config) MeetingLink(code string) string {
	return c.url(c.httpScheme(), "/"+code)
}

// GetSTUNServers returns STUN server URLs, nil when STUN is disabled.
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
