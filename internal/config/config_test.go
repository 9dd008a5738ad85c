package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/voicenotes/internal/kv"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"BASE_URL": "http://localhost:8080"})
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 5*time.Minute, cfg.TranscriptsCacheTTL)
	require.Zero(t, cfg.RateLimitRPS)
	require.Equal(t, 5, cfg.RateLimitBurst)
	require.Equal(t, kv.DriverFile, cfg.StoreDriver)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	_, err := LoadFrom(map[string]string{})
	if err == nil {
		t.Fatal("expected error for missing BASE_URL, got nil")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"BASE_URL":              "https://api.example.com",
		"HTTP_TIMEOUT":          "5s",
		"RATE_LIMIT_RPS":        "2.5",
		"TRANSCRIPTS_CACHE_TTL": "90s",
		"STORE_DRIVER":          "sqlite",
		"STORE_PATH":            "/tmp/vn.db",
		"STORE_PASSPHRASE":      "secret",
	})
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 2.5, cfg.RateLimitRPS)
	require.Equal(t, 90*time.Second, cfg.TranscriptsCacheTTL)
	require.Equal(t, kv.Options{Driver: "sqlite", Path: "/tmp/vn.db", Passphrase: "secret"}, cfg.Store())

	_, err = LoadFrom(map[string]string{"BASE_URL": "x", "HTTP_TIMEOUT": "soon"})
	require.Error(t, err)
}

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("DEVSERVER_ADDR", "127.0.0.1:9999")
	cfg, err := LoadServer()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.Addr)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.True(t, cfg.Envelope)
}
