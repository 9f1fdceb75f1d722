package proxy

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SettingsProvider reads the host proxy configuration. Implementations are
// consulted on every fetch and must not cache across calls.
type SettingsProvider interface {
	ProxySettings(ctx context.Context) (Settings, error)
}

// ProviderFunc adapts a function to SettingsProvider.
type ProviderFunc func(ctx context.Context) (Settings, error)

func (f ProviderFunc) ProxySettings(ctx context.Context) (Settings, error) { return f(ctx) }

// Static always returns the same settings.
type Static Settings

func (s Static) ProxySettings(context.Context) (Settings, error) { return Settings(s), nil }

// Disabled never proxies.
var Disabled SettingsProvider = Static{}

// FileProvider reads settings from a YAML file on each call:
//
//	proxy_enable: true
//	proxy_server: "http=proxy:8080;socks=proxy:1080"
//
// A missing file means proxying is disabled.
type FileProvider struct {
	Path string
}

func (p FileProvider) ProxySettings(context.Context) (Settings, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("proxy settings file: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("proxy settings file %s: %w", p.Path, err)
	}
	return s, nil
}

// Environment variables read by EnvProvider. The JSONREQUEST_ pair takes the
// registry format verbatim and wins over the conventional *_proxy variables.
const (
	EnvProxyEnable = "JSONREQUEST_PROXY_ENABLE"
	EnvProxyServer = "JSONREQUEST_PROXY_SERVER"
)

// EnvProvider translates process environment into Settings. Without the
// JSONREQUEST_ variables it maps http_proxy, https_proxy and all_proxy
// (either case) onto typed entries; a socks URL in any of them becomes a
// "socks=" entry and an http all_proxy becomes a bare entry. NO_PROXY is not
// consulted.
type EnvProvider struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (p EnvProvider) getenv(key string) string {
	if p.Getenv != nil {
		return p.Getenv(key)
	}
	return os.Getenv(key)
}

func (p EnvProvider) lookup(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(p.getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

func (p EnvProvider) ProxySettings(context.Context) (Settings, error) {
	if server := p.lookup(EnvProxyServer); server != "" {
		enabled := true
		switch strings.ToLower(p.lookup(EnvProxyEnable)) {
		case "0", "false", "no", "off":
			enabled = false
		}
		return Settings{Enabled: enabled, Server: server}, nil
	}

	var entries []string
	add := func(typ, raw string) {
		if raw == "" {
			return
		}
		kind, hostport := splitProxyURL(raw)
		switch {
		case kind == "socks":
			entries = append(entries, "socks="+hostport)
		case typ == "":
			entries = append(entries, hostport)
		default:
			entries = append(entries, typ+"="+hostport)
		}
	}
	add("http", p.lookup("http_proxy", "HTTP_PROXY"))
	add("https", p.lookup("https_proxy", "HTTPS_PROXY"))
	add("", p.lookup("all_proxy", "ALL_PROXY"))

	if len(entries) == 0 {
		return Settings{}, nil
	}
	return Settings{Enabled: true, Server: strings.Join(entries, ";")}, nil
}

// splitProxyURL returns "socks" or "http" and the host[:port] of a proxy URL.
func splitProxyURL(raw string) (string, string) {
	if !strings.Contains(raw, "://") {
		return "http", raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "http", raw
	}
	if strings.HasPrefix(strings.ToLower(u.Scheme), "socks") {
		return "socks", u.Host
	}
	return "http", u.Host
}

// Source names accepted by NewProvider.
const (
	SourceSystem = "system"
	SourceEnv    = "env"
	SourceFile   = "file"
	SourceNone   = "none"
)

// NewProvider builds the provider for a configured source.
func NewProvider(source, file string) (SettingsProvider, error) {
	switch strings.ToLower(source) {
	case SourceSystem, "":
		return SystemProvider(), nil
	case SourceEnv:
		return EnvProvider{}, nil
	case SourceFile:
		return FileProvider{Path: file}, nil
	case SourceNone:
		return Disabled, nil
	default:
		return nil, fmt.Errorf("unknown proxy source %q", source)
	}
}
