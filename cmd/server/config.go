package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Tyrowin/threadboard/internal/server"
)

const (
	defaultOrigins    = "http://localhost:3000"
	defaultAIFallback = "AI is not available right now."
)

var validate = validator.New()

type Config struct {
	Host               string        `env:"HOST,default=0.0.0.0"`
	Port               int           `env:"PORT,default=3000" validate:"min=1,max=65535"`
	AllowedOrigins     string        `env:"ALLOWED_ORIGINS"`
	MaxMessageSize     int           `env:"MAX_MESSAGE_SIZE,default=1048576" validate:"min=1"`
	SendBuffer         int           `env:"SEND_BUFFER,default=256" validate:"min=1"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST,default=120" validate:"min=1"`
	RateLimitPerSecond float64       `env:"RATE_LIMIT_PER_SECOND,default=60" validate:"gt=0"`
	DataDir            string        `env:"DATA_DIR,default=data" validate:"required"`
	StoreBackend       string        `env:"STORE_BACKEND,default=json" validate:"oneof=json badger"`
	PublicDir          string        `env:"PUBLIC_DIR,default=public"`
	IndexPage          string        `env:"INDEX_PAGE,default=main.html"`
	UploadDir          string        `env:"UPLOAD_DIR"`
	MaxUploadBytes     int           `env:"MAX_UPLOAD_BYTES,default=10485760" validate:"min=1"`
	SSLKeyPath         string        `env:"SSL_KEY_PATH,default=certs/server.key"`
	SSLCertPath        string        `env:"SSL_CERT_PATH,default=certs/server.crt"`
	UseHTTPS           bool          `env:"USE_HTTPS,default=false"`
	PexelsKey          string        `env:"PEXELS_KEY"`
	PexelsURL          string        `env:"PEXELS_URL" validate:"omitempty,url"`
	ImageSearchTimeout time.Duration `env:"IMAGE_SEARCH_TIMEOUT,default=10s"`
	AIEnabled          bool          `env:"AI_ENABLED,default=false"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY" validate:"required_if=AIEnabled true"`
	GeminiModel        string        `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
	GeminiURL          string        `env:"GEMINI_URL" validate:"omitempty,url"`
	AITimeout          time.Duration `env:"AI_TIMEOUT,default=20s"`
	AIFallback         string        `env:"AI_FALLBACK"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// loadConfig reads envFile (or .env when present) into the process
// environment, then the environment into a Config.
func loadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = defaultOrigins
	}
	if cfg.AIFallback == "" {
		cfg.AIFallback = defaultAIFallback
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(cfg.PublicDir, "uploads")
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ServerConfig maps the environment onto the transport settings.
func (c Config) ServerConfig() *server.Config {
	return &server.Config{
		Addr:           c.Addr(),
		AllowedOrigins: server.ParseOrigins(c.AllowedOrigins),
		MaxMessageSize: int64(c.MaxMessageSize),
		SendBuffer:     c.SendBuffer,
		RateLimit: server.RateLimitConfig{
			Burst:     c.RateLimitBurst,
			PerSecond: c.RateLimitPerSecond,
		},
		TLS: server.TLSConfig{
			CertPath:  c.SSLCertPath,
			KeyPath:   c.SSLKeyPath,
			Requested: c.UseHTTPS,
		},
	}
}
