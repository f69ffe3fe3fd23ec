package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime settings shared by the CLI and the HTTP service.
type Config struct {
	Port string

	// Storefront REST API that receives submissions, uploads and record reads.
	APIBaseURL string
	APIToken   string
	UploadURL  string

	// Directory of JSON/YAML form schemas merged over the embedded set.
	SchemaDir string
	// Optional OpenAPI document whose request bodies become extra forms.
	OpenAPISource string

	RequestTimeout time.Duration

	// Session registry
	SessionTTL      time.Duration
	JanitorInterval time.Duration

	MaxUploadBytes int64

	LogLevel string
}

// Load reads the configuration from the environment, falling back to
// defaults for anything unset or unparsable.
func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIBaseURL: envOr("API_BASE_URL", "http://localhost:8080/api"),
		APIToken:   os.Getenv("API_TOKEN"),
		UploadURL:  envOr("UPLOAD_URL", "/uploads"),

		SchemaDir:     os.Getenv("SCHEMA_DIR"),
		OpenAPISource: os.Getenv("OPENAPI_SOURCE"),

		RequestTimeout: envDuration("REQUEST_TIMEOUT", 30*time.Second),

		SessionTTL:      envDuration("SESSION_TTL", 30*time.Minute),
		JanitorInterval: envDuration("JANITOR_INTERVAL", time.Minute),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10<<20),

		LogLevel: strings.ToLower(envOr("LOG_LEVEL", "info")),
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}

	return cfg
}

// Validate reports settings that would make the service unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
