package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/siraymusic/siray/internal/adapter/caption"
	"github.com/siraymusic/siray/internal/adapter/catalog"
	"github.com/siraymusic/siray/internal/logger"
	"github.com/siraymusic/siray/internal/service"
)

// Config holds application configuration. It is read from JSON; fields
// missing from the file keep their defaults.
type Config struct {
	Log      LogConfig      `json:"log"`
	Caption  CaptionConfig  `json:"caption"`
	Playback PlaybackConfig `json:"playback"`
	Library  LibraryConfig  `json:"library"`
	Server   ServerConfig   `json:"server"`

	// Logger replaces the configured logger; tests inject a quiet one
	Logger *slog.Logger `json:"-"`
}

type LogConfig struct {
	// Level is DEBUG, INFO, WARN or ERROR
	Level string `json:"level"`

	// Format is "text" or "json"
	Format string `json:"format"`
}

type CaptionConfig struct {
	// Endpoint of the caption service. Empty selects the offline template captions.
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`

	TimeoutMS int `json:"timeout_ms"`

	// CacheSize is the number of captions kept in memory; 0 disables the cache.
	CacheSize int `json:"cache_size"`
}

type PlaybackConfig struct {
	TickMS       int `json:"tick_ms"`
	HistoryLimit int `json:"history_limit"`
}

type LibraryConfig struct {
	// WatchDir is imported on startup and watched for new files when set.
	WatchDir   string   `json:"watch_dir"`
	Extensions []string `json:"extensions"`
	SettleMS   int      `json:"settle_ms"`
}

type ServerConfig struct {
	Listen string `json:"listen"`
	Path   string `json:"path"`
	// AllowedOrigins lists browser origins, besides the server's own, that
	// may open the websocket. "*" allows any.
	AllowedOrigins []string `json:"allowed_origins"`
}

// DefaultConfig returns the default application configuration.
// The log section follows SIRAY_LOG_LEVEL and SIRAY_LOG_FORMAT.
func DefaultConfig() Config {
	logCfg := logger.DefaultConfig()
	return Config{
		Log: LogConfig{
			Level:  logCfg.Level.String(),
			Format: logCfg.Format,
		},
		Caption: CaptionConfig{
			TimeoutMS: int(service.DefaultCaptionTimeout / time.Millisecond),
			CacheSize: caption.DefaultCacheSize,
		},
		Playback: PlaybackConfig{
			TickMS:       int(service.DefaultTickInterval / time.Millisecond),
			HistoryLimit: service.DefaultHistoryLimit,
		},
		Library: LibraryConfig{
			Extensions: slices.Clone(catalog.DefaultExtensions),
			SettleMS:   int(catalog.DefaultSettle / time.Millisecond),
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8765",
			Path:   "/ws",
		},
	}
}

// LoadConfig reads a JSON config file on top of DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("log.format must be text or json")
	}

	if c.Caption.Endpoint != "" {
		u, err := url.Parse(c.Caption.Endpoint)
		if err != nil {
			return fmt.Errorf("caption.endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("caption.endpoint scheme must be http or https")
		}
		if u.Host == "" {
			return errors.New("caption.endpoint is missing a host")
		}
	}
	if c.Caption.TimeoutMS <= 0 {
		return errors.New("caption.timeout_ms must be > 0")
	}
	if c.Caption.CacheSize < 0 {
		return errors.New("caption.cache_size must be >= 0")
	}

	if c.Playback.TickMS < 10 || c.Playback.TickMS > 5000 {
		return errors.New("playback.tick_ms must be 10..5000")
	}
	if c.Playback.HistoryLimit <= 0 {
		return errors.New("playback.history_limit must be > 0")
	}

	if c.Library.SettleMS < 0 {
		return errors.New("library.settle_ms must be >= 0")
	}
	for _, ext := range c.Library.Extensions {
		if strings.TrimSpace(ext) == "" {
			return errors.New("library.extensions must not contain empty entries")
		}
	}

	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen: %w", err)
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return errors.New("server.path must start with /")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server.allowed_origins: %q must be * or an http(s) origin", origin)
		}
	}
	return nil
}

func (c *Config) loggerConfig() logger.Config {
	return logger.Config{
		Level:  logger.ParseLevel(c.Log.Level),
		Format: strings.ToLower(c.Log.Format),
	}
}

func (c *Config) captionTimeout() time.Duration {
	return time.Duration(c.Caption.TimeoutMS) * time.Millisecond
}

func (c *Config) tickInterval() time.Duration {
	return time.Duration(c.Playback.TickMS) * time.Millisecond
}

func (c *Config) settle() time.Duration {
	return time.Duration(c.Library.SettleMS) * time.Millisecond
}
