package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WAYNEX_API_URL", "WAYNEX_TIMEOUT", "WAYNEX_SESSION_FILE", "WAYNEX_CACHE_TTL",
		"WAYNEX_CONFIG", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR",
	} {
		t.Setenv(k, "")
	}
	// Keep godotenv away from any developer .env in the package dir.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("expected default API URL, got %s", cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout)
	}
	if filepath.Base(cfg.SessionFile) != "admin_session.json" {
		t.Errorf("unexpected session file %s", cfg.SessionFile)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WAYNEX_API_URL", "http://localhost:4000/api/")
	t.Setenv("WAYNEX_TIMEOUT", "5")
	t.Setenv("WAYNEX_CACHE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://localhost:4000/api" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.APIURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Timeout)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("expected 90s cache ttl, got %v", cfg.CacheTTL)
	}
}

func TestLoad_Profile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "waynex.yaml")
	content := "api_url: http://staging.local/api\nlog_level: debug\nsession_file: /tmp/s.json\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WAYNEX_CONFIG", path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://staging.local/api" {
		t.Errorf("expected profile API URL, got %s", cfg.APIURL)
	}
	if cfg.SessionFile != "/tmp/s.json" {
		t.Errorf("expected profile session file, got %s", cfg.SessionFile)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected env to override profile log level, got %s", cfg.LogLevel)
	}
}

func TestLoad_InvalidURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("WAYNEX_API_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid API URL")
	}
}

func TestParseDurationOr(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Minute},
		{"15s", 15 * time.Second},
		{"20", 20 * time.Second},
		{"garbage", time.Minute},
	}
	for _, tt := range tests {
		if got := parseDurationOr(tt.in, time.Minute); got != tt.want {
			t.Errorf("parseDurationOr(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
