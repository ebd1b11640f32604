package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything trawl needs to reach the hub and run the tail.
type Config struct {
	HubURL         string
	Filter         string
	PageSize       int
	FetchTimeout   time.Duration
	BufferCapacity int
	LogFile        string
	LogLevel       string
	MetricsAddr    string
}

const (
	defaultConfigPath     = "~/.config/trawl/config.toml"
	defaultLogFile        = "~/.local/state/trawl/trawl.log"
	defaultHubURL         = "127.0.0.1:8898"
	defaultPageSize       = 100
	defaultFetchTimeout   = 3 * time.Second
	defaultBufferCapacity = 10000
	defaultLogLevel       = "info"
)

// Environment variables that override the config file.
const (
	EnvHubURL      = "TRAWL_HUB_URL"
	EnvFilter      = "TRAWL_FILTER"
	EnvLogLevel    = "TRAWL_LOG_LEVEL"
	EnvMetricsAddr = "TRAWL_METRICS_ADDR"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HubURL:         defaultHubURL,
		PageSize:       defaultPageSize,
		FetchTimeout:   defaultFetchTimeout,
		BufferCapacity: defaultBufferCapacity,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
	}
}

// Load reads the config file at path (the default location when empty),
// falling back to defaults when it is missing, then applies environment
// overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		if err := cfg.read(file); err != nil {
			return Config{}, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) read(r io.Reader) error {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		HubURL         string `toml:"hub_url"`
		Filter         string `toml:"filter"`
		PageSize       int    `toml:"page_size"`
		FetchTimeoutMs int    `toml:"fetch_timeout_ms"`
		BufferCapacity int    `toml:"buffer_capacity"`
		LogFile        string `toml:"log_file"`
		LogLevel       string `toml:"log_level"`
		MetricsAddr    string `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.HubURL); v != "" {
		c.HubURL = v
	}
	c.Filter = strings.TrimSpace(raw.Filter)
	if raw.PageSize != 0 {
		c.PageSize = raw.PageSize
	}
	if raw.FetchTimeoutMs != 0 {
		c.FetchTimeout = time.Duration(raw.FetchTimeoutMs) * time.Millisecond
	}
	if raw.BufferCapacity != 0 {
		c.BufferCapacity = raw.BufferCapacity
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	c.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	return nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvHubURL); ok && strings.TrimSpace(v) != "" {
		c.HubURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvFilter); ok {
		c.Filter = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.MetricsAddr = strings.TrimSpace(v)
	}
}

// Validate rejects values the tail cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HubURL) == "" {
		return errors.New("hub_url is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("buffer_capacity must be positive, got %d", c.BufferCapacity)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout_ms must be positive, got %d", c.FetchTimeout.Milliseconds())
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ to the home directory and makes path absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
