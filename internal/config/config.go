package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Search        SearchConfig        `yaml:"search"`
	Notifications NotificationsConfig `yaml:"notifications"`
	StateDir      string              `yaml:"state_dir"`
	Log           LogConfig           `yaml:"log"`
	Catalog       CatalogConfig       `yaml:"catalog"`
}

type ServerConfig struct {
	BaseURL        string        `yaml:"base_url"`
	WSURL          string        `yaml:"ws_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type NotificationsConfig struct {
	Duration       time.Duration `yaml:"duration"`
	NoticeDuration time.Duration `yaml:"notice_duration"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// CatalogConfig overrides the enumerated values offered in filters and
// forms. Empty lists keep the built-in values.
type CatalogConfig struct {
	Roles     []client.Option `yaml:"roles"`
	Locations []client.Option `yaml:"locations"`
	Types     []client.Option `yaml:"types"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://127.0.0.1:5000",
			RequestTimeout: 10 * time.Second,
		},
		Search: SearchConfig{
			Debounce: 400 * time.Millisecond,
		},
		Notifications: NotificationsConfig{
			Duration:       5 * time.Second,
			NoticeDuration: 5 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads the YAML file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values a zero or negative setting would break.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("server.base_url %q is not an http(s) URL", c.Server.BaseURL)
	}
	if c.Server.WSURL != "" {
		w, err := url.Parse(c.Server.WSURL)
		if err != nil || w.Host == "" || (w.Scheme != "ws" && w.Scheme != "wss") {
			return fmt.Errorf("server.ws_url %q is not a ws(s) URL", c.Server.WSURL)
		}
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if c.Search.Debounce < 0 {
		return errors.New("search.debounce must not be negative")
	}
	if c.Notifications.Duration <= 0 || c.Notifications.NoticeDuration <= 0 {
		return errors.New("notification durations must be positive")
	}
	return nil
}

// PushURL returns the websocket endpoint, deriving it from the base URL
// when none is configured.
func (c *Config) PushURL() string {
	if c.Server.WSURL != "" {
		return c.Server.WSURL
	}
	return DeriveWSURL(c.Server.BaseURL)
}

// DeriveWSURL converts http://host:port → ws://host:port/ws
func DeriveWSURL(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "ws://127.0.0.1:5000/ws"
	}
	scheme := "ws"
	if strings.HasPrefix(u.Scheme, "https") {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s%s/ws", scheme, u.Host, strings.TrimRight(u.Path, "/"))
}

// EventCatalog returns the built-in catalog with any configured overrides
// applied.
func (c *Config) EventCatalog() client.Catalog {
	cat := client.DefaultCatalog()
	if len(c.Catalog.Roles) > 0 {
		cat.Roles = c.Catalog.Roles
	}
	if len(c.Catalog.Locations) > 0 {
		cat.Locations = c.Catalog.Locations
	}
	if len(c.Catalog.Types) > 0 {
		cat.Types = c.Catalog.Types
	}
	return cat
}
