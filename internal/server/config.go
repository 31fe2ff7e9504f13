package server

import (
	"strings"
	"sync"
)

// RateLimitConfig defines the per-connection inbound frame budget: Burst
// frames at once, refilled at PerSecond.
type RateLimitConfig struct {
	Burst     int
	PerSecond float64
}

// TLSConfig selects HTTPS. TLS is used when both files exist; Requested only
// changes how a missing pair is reported.
type TLSConfig struct {
	CertPath  string
	KeyPath   string
	Requested bool
}

// Config holds the transport settings including security controls.
type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxMessageSize int64
	SendBuffer     int
	RateLimit      RateLimitConfig
	TLS            TLSConfig
}

const (
	defaultAddr           = "0.0.0.0:3000"
	defaultMaxMessageSize = 1 << 20
	defaultSendBuffer     = 256
	defaultBurst          = 120
	defaultPerSecond      = 60
)

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Addr: defaultAddr,
		AllowedOrigins: []string{
			"http://localhost:3000",
		},
		MaxMessageSize: defaultMaxMessageSize,
		SendBuffer:     defaultSendBuffer,
		RateLimit: RateLimitConfig{
			Burst:     defaultBurst,
			PerSecond: defaultPerSecond,
		},
		TLS: TLSConfig{
			CertPath: "certs/server.crt",
			KeyPath:  "certs/server.key",
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaultBurst
	}

	if cfg.RateLimit.PerSecond <= 0 {
		cfg.RateLimit.PerSecond = defaultPerSecond
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) Config {
	if cfg == nil {
		return sanitizeConfig(defaultConfig())
	}

	copied := *cfg
	copied.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return sanitizeConfig(copied)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// ParseOrigins splits a comma separated origin list. A blank list yields nil.
func ParseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
