package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the photo bot service.
type Config struct {
	BindAddr          string
	ShutdownTimeout   time.Duration
	DialogIdleTimeout time.Duration
	MetricsNamespace  string

	AllowAnyOrigin bool

	FlickrAPIKey   string
	FlickrAPIURL   string
	FlickrPageSize int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":3978"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "flickrbot"),
		AllowAnyOrigin:   false,
		FlickrAPIKey:     stringsTrimSpace("FLICKR_API_KEY"),
		FlickrAPIURL:     envOrDefault("FLICKR_API_URL", "https://api.flickr.com/services/rest/"),
		FlickrPageSize:   100,
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:  15 * time.Second,
		// Conversations idle longer than this lose their dialog stack.
		DialogIdleTimeout: 30 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.DialogIdleTimeout, err = durationFromEnv("APP_DIALOG_IDLE_TIMEOUT", cfg.DialogIdleTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.FlickrPageSize, err = intFromEnv("FLICKR_PAGE_SIZE", cfg.FlickrPageSize)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.FlickrAPIKey == "" {
		return Config{}, fmt.Errorf("FLICKR_API_KEY must be set")
	}
	// The count prompt accepts up to 100, so the candidate batch must be
	// able to cover it; Flickr caps per_page at 500.
	if cfg.FlickrPageSize < 100 {
		return Config{}, fmt.Errorf("FLICKR_PAGE_SIZE must be at least 100")
	}
	if cfg.FlickrPageSize > 500 {
		return Config{}, fmt.Errorf("FLICKR_PAGE_SIZE must not exceed 500")
	}
	if cfg.DialogIdleTimeout < time.Minute {
		return Config{}, fmt.Errorf("APP_DIALOG_IDLE_TIMEOUT must be at least 1m")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
