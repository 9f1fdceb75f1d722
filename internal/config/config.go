package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

// Config holds all configuration for the JSONRequest service.
type Config struct {
	// Origin every relative request URL resolves against.
	Origin    string
	UserAgent string

	// HTTP API
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Logging
	LogLevel string
	LogFile  string

	// Proxy settings source: system, env, file or none.
	ProxySource  string
	ProxyFile    string
	ProcessSOCKS bool

	// Outcome journal; empty JournalDir disables it.
	JournalDir           string
	JournalMaxSizeMB     int
	JournalBuffer        int
	JournalMaxValueBytes int

	// Optional webhook notified of failed fetches.
	NotifyURL string

	EventBuffer int
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		Origin:               getEnvOrDefault("JSONREQUEST_ORIGIN", "http://127.0.0.1"),
		UserAgent:            getEnvOrDefault("JSONREQUEST_USER_AGENT", jsonrequest.DefaultUserAgent),
		BindAddr:             getEnvOrDefault("JSONREQUEST_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:       getEnvListOrDefault("JSONREQUEST_PORT_CANDIDATES", []string{"127.0.0.1:8191", "127.0.0.1:8192"}),
		PortAutoFallback:     getEnvBoolOrDefault("JSONREQUEST_PORT_AUTO_FALLBACK", true),
		LogLevel:             strings.ToLower(getEnvOrDefault("JSONREQUEST_LOG_LEVEL", "info")),
		LogFile:              getEnvOrDefault("JSONREQUEST_LOG_FILE", "logs/jsonrequestd.log"),
		ProxySource:          strings.ToLower(getEnvOrDefault("JSONREQUEST_PROXY_SOURCE", "system")),
		ProxyFile:            getEnvOrDefault("JSONREQUEST_PROXY_FILE", "./config/proxy.yaml"),
		ProcessSOCKS:         getEnvBoolOrDefault("JSONREQUEST_PROCESS_SOCKS", false),
		JournalDir:           getEnvOrDefault("JSONREQUEST_JOURNAL_DIR", ""),
		JournalMaxSizeMB:     getEnvIntOrDefault("JSONREQUEST_JOURNAL_MAX_SIZE_MB", 50),
		JournalBuffer:        getEnvIntOrDefault("JSONREQUEST_JOURNAL_BUFFER", 1000),
		JournalMaxValueBytes: getEnvIntOrDefault("JSONREQUEST_JOURNAL_MAX_VALUE_BYTES", 65536),
		NotifyURL:            getEnvOrDefault("JSONREQUEST_NOTIFY_URL", ""),
		EventBuffer:          getEnvIntOrDefault("JSONREQUEST_EVENT_BUFFER", 256),
	}
	if cfg.JournalBuffer < 1 {
		cfg.JournalBuffer = 1
	}
	if cfg.EventBuffer < 1 {
		cfg.EventBuffer = 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.Origin); err != nil {
		result = multierror.Append(result, fmt.Errorf("JSONREQUEST_ORIGIN: %w", err))
	} else if !u.IsAbs() || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("JSONREQUEST_ORIGIN: %q is not an absolute URI", c.Origin))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("JSONREQUEST_LOG_LEVEL: unknown level %q", c.LogLevel))
	}

	switch c.ProxySource {
	case "system", "env", "file", "none":
	default:
		result = multierror.Append(result, fmt.Errorf("JSONREQUEST_PROXY_SOURCE: unknown source %q", c.ProxySource))
	}
	if c.ProxySource == "file" && c.ProxyFile == "" {
		result = multierror.Append(result, fmt.Errorf("JSONREQUEST_PROXY_FILE: required when proxy source is file"))
	}

	if c.JournalDir != "" && c.JournalMaxSizeMB < 1 {
		result = multierror.Append(result, fmt.Errorf("JSONREQUEST_JOURNAL_MAX_SIZE_MB: must be at least 1"))
	}

	if c.NotifyURL != "" {
		if u, err := url.Parse(c.NotifyURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			result = multierror.Append(result, fmt.Errorf("JSONREQUEST_NOTIFY_URL: %q is not an http(s) URL", c.NotifyURL))
		}
	}

	return result.ErrorOrNil()
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
