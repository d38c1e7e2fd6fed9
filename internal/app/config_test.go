package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("SIRAY_LOG_LEVEL", "")
	t.Setenv("SIRAY_LOG_FORMAT", "")

	config := DefaultConfig()

	assert.Equal(t, "INFO", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Empty(t, config.Caption.Endpoint)
	assert.Equal(t, 8000, config.Caption.TimeoutMS)
	assert.Equal(t, 256, config.Caption.CacheSize)
	assert.Equal(t, 250, config.Playback.TickMS)
	assert.Equal(t, 50, config.Playback.HistoryLimit)
	assert.Contains(t, config.Library.Extensions, ".mp3")
	assert.Equal(t, "127.0.0.1:8765", config.Server.Listen)
	assert.Equal(t, "/ws", config.Server.Path)
	assert.Empty(t, config.Server.AllowedOrigins, "only same-origin pages by default")
	assert.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "siray.json")
	data := "\xef\xbb\xbf" + `{
		"log": {"level": "debug", "format": "json"},
		"caption": {"endpoint": "https://captions.example.com/v1", "api_key": "k"},
		"server": {"listen": ":9000"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "https://captions.example.com/v1", config.Caption.Endpoint)
	assert.Equal(t, ":9000", config.Server.Listen)
	// untouched sections keep their defaults
	assert.Equal(t, 8000, config.Caption.TimeoutMS)
	assert.Equal(t, "/ws", config.Server.Path)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "parse")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"playback": {"tick_ms": 1}}`), 0o600))
	_, err = LoadConfig(invalid)
	assert.ErrorContains(t, err, "playback.tick_ms")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"endpoint scheme", func(c *Config) { c.Caption.Endpoint = "ftp://x" }, "scheme"},
		{"endpoint host", func(c *Config) { c.Caption.Endpoint = "http://" }, "host"},
		{"cache size", func(c *Config) { c.Caption.CacheSize = -1 }, "caption.cache_size"},
		{"history", func(c *Config) { c.Playback.HistoryLimit = 0 }, "playback.history_limit"},
		{"settle", func(c *Config) { c.Library.SettleMS = -5 }, "library.settle_ms"},
		{"extensions", func(c *Config) { c.Library.Extensions = []string{".mp3", " "} }, "library.extensions"},
		{"listen", func(c *Config) { c.Server.Listen = "nope" }, "server.listen"},
		{"path", func(c *Config) { c.Server.Path = "ws" }, "server.path"},
		{"origin", func(c *Config) { c.Server.AllowedOrigins = []string{"player.example.com"} }, "server.allowed_origins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			assert.ErrorContains(t, config.Validate(), tt.want)
		})
	}
}
