package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FLICKR_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":3978" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":3978")
	}
	if cfg.FlickrAPIURL != "https://api.flickr.com/services/rest/" {
		t.Fatalf("FlickrAPIURL = %q, want default rest endpoint", cfg.FlickrAPIURL)
	}
	if cfg.FlickrPageSize != 100 {
		t.Fatalf("FlickrPageSize = %d, want 100", cfg.FlickrPageSize)
	}
	if cfg.MetricsNamespace != "flickrbot" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "flickrbot")
	}
	if cfg.DialogIdleTimeout != 30*time.Minute {
		t.Fatalf("DialogIdleTimeout = %v, want 30m", cfg.DialogIdleTimeout)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	setCoreEnvEmpty(t)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail without FLICKR_API_KEY")
	}
}

func TestLoadRejectsSmallPageSize(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FLICKR_API_KEY", "test-key")
	t.Setenv("FLICKR_PAGE_SIZE", "50")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject page size below 100")
	}
}

func TestLoadExplicitOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FLICKR_API_KEY", "test-key")
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("FLICKR_PAGE_SIZE", "250")
	t.Setenv("APP_DIALOG_IDLE_TIMEOUT", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.FlickrPageSize != 250 {
		t.Fatalf("FlickrPageSize = %d, want 250", cfg.FlickrPageSize)
	}
	if cfg.DialogIdleTimeout != 5*time.Minute {
		t.Fatalf("DialogIdleTimeout = %v, want 5m", cfg.DialogIdleTimeout)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_DIALOG_IDLE_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"FLICKR_API_KEY",
		"FLICKR_API_URL",
		"FLICKR_PAGE_SIZE",
		"DATABASE_URL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
