// Package config loads configuration from environment variables, an optional
// .env file and an optional YAML profile.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the production admin API.
const DefaultAPIURL = "https://www.server.waynexshipping.com/api"

// Config holds the admin client configuration.
type Config struct {
	// API
	APIURL  string
	Timeout time.Duration

	// Session slot location
	SessionFile string

	// Idle time after which a fetch key is dropped from the cache
	CacheTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics listen address for watch mode (empty = disabled)
	MetricsAddr string
}

// profile is the YAML file layout. Every field is optional.
type profile struct {
	APIURL      string `yaml:"api_url"`
	Timeout     string `yaml:"timeout"`
	SessionFile string `yaml:"session_file"`
	CacheTTL    string `yaml:"cache_ttl"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads configuration with precedence env > .env > YAML profile > defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var p profile
	if path := os.Getenv("WAYNEX_CONFIG"); path != "" {
		loaded, err := loadProfile(path)
		if err != nil {
			return nil, err
		}
		p = *loaded
	}

	cfg := &Config{
		APIURL:      envOr("WAYNEX_API_URL", or(p.APIURL, DefaultAPIURL)),
		Timeout:     envDuration("WAYNEX_TIMEOUT", parseDurationOr(p.Timeout, 30*time.Second)),
		SessionFile: envOr("WAYNEX_SESSION_FILE", or(p.SessionFile, defaultSessionFile())),
		CacheTTL:    envDuration("WAYNEX_CACHE_TTL", parseDurationOr(p.CacheTTL, 10*time.Minute)),
		LogLevel:    envOr("LOG_LEVEL", or(p.LogLevel, "warn")),
		LogFormat:   envOr("LOG_FORMAT", or(p.LogFormat, "console")),
		MetricsAddr: envOr("METRICS_ADDR", p.MetricsAddr),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("WAYNEX_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("WAYNEX_TIMEOUT must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("WAYNEX_CACHE_TTL must be positive")
	}
	if c.SessionFile == "" {
		return fmt.Errorf("WAYNEX_SESSION_FILE is required")
	}
	return nil
}

func loadProfile(path string) (*profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config profile: %w", err)
	}
	var p profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse config profile %s: %w", path, err)
	}
	return &p, nil
}

// defaultSessionFile returns the per-user location of the session slot.
func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "waynex", "admin_session.json")
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	return parseDurationOr(os.Getenv(key), fallback)
}

// parseDurationOr accepts Go durations ("30s") or plain seconds ("30").
func parseDurationOr(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
