// Package config loads client and dev-server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/and161185/voicenotes/internal/kv"
)

// Config holds client settings.
type Config struct {
	// Backend
	BaseURL     string        `env:"BASE_URL,required"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// Outbound throttling; 0 disables it
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"5"`

	TranscriptsCacheTTL time.Duration `env:"TRANSCRIPTS_CACHE_TTL" envDefault:"5m"`

	// Local store
	StoreDriver     string `env:"STORE_DRIVER" envDefault:"file"`
	StorePath       string `env:"STORE_PATH"`
	StoreDSN        string `env:"STORE_DSN"`
	StorePassphrase string `env:"STORE_PASSPHRASE"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Store maps the store settings onto kv.Options.
func (c *Config) Store() kv.Options {
	return kv.Options{
		Driver:     c.StoreDriver,
		Path:       c.StorePath,
		DSN:        c.StoreDSN,
		Passphrase: c.StorePassphrase,
	}
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse[Config](nil)
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse[Config](vars)
}

// ServerConfig holds settings of the development backend.
type ServerConfig struct {
	Addr            string        `env:"DEVSERVER_ADDR" envDefault:":8080"`
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	AccessTTL       time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	Envelope        bool          `env:"ENVELOPE" envDefault:"true"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadServer parses the process environment.
func LoadServer() (*ServerConfig, error) {
	return parse[ServerConfig](nil)
}

func parse[T any](vars map[string]string) (*T, error) {
	cfg := new(T)
	opts := env.Options{}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
