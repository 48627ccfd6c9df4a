package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BRAND_CONFIG_PATH", "")
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "firecrawl", cfg.Fetcher.Provider)
	assert.Equal(t, "openai", cfg.Generator.Provider)
	assert.Equal(t, 4, cfg.Onboarding.MaxConcurrency)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout.Duration)
}

func TestLoadConfigLayersFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
  shutdown_timeout: "3s"
  cors_allowed_origins: ["https://app.example"]
store:
  driver: sqlite
  dsn: "file:test.db"
fetcher:
  provider: http
  timeout: 12
generator:
  provider: gemini
  gemini_model: gemini-2.5-pro
`), 0o600))

	t.Setenv("BRAND_CONFIG_PATH", path)
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("ONBOARD_MAX_CONCURRENCY", "9")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout.Duration)
	assert.Equal(t, []string{"https://app.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "http", cfg.Fetcher.Provider)
	assert.Equal(t, 12*time.Second, cfg.Fetcher.Timeout.Duration)
	assert.Equal(t, "gemini", cfg.Generator.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Generator.GeminiModel)
	assert.Equal(t, 9, cfg.Onboarding.MaxConcurrency)
	// Unset keys keep their defaults.
	assert.Equal(t, 5*time.Minute, cfg.HTTP.RequestTimeout.Duration)
}

func TestLoadConfigRejectsUnknownProviders(t *testing.T) {
	t.Setenv("BRAND_CONFIG_PATH", "")
	t.Setenv("FETCHER_PROVIDER", "scrapy")
	_, err := LoadConfig(nil)
	require.Error(t, err)

	t.Setenv("FETCHER_PROVIDER", "rod")
	t.Setenv("GENERATOR_PROVIDER", "llama")
	_, err = LoadConfig(nil)
	require.Error(t, err)
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  shutdown_timeout: soon\n"), 0o600))
	t.Setenv("BRAND_CONFIG_PATH", path)
	_, err := LoadConfig(nil)
	require.Error(t, err)
}
