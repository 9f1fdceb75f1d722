package proxy

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Resolver reads fresh settings from its provider and selects a proxy.
type Resolver struct {
	provider SettingsProvider
	logger   *slog.Logger
}

// NewResolver returns a Resolver over provider; a nil provider disables
// proxying and a nil logger means slog.Default().
func NewResolver(provider SettingsProvider, logger *slog.Logger) *Resolver {
	if provider == nil {
		provider = Disabled
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{provider: provider, logger: logger}
}

// Resolve returns the decision for a target scheme. It never fails: a
// provider error is logged and treated as no proxy.
func (r *Resolver) Resolve(ctx context.Context, scheme string) Decision {
	settings, err := r.provider.ProxySettings(ctx)
	if err != nil {
		r.logger.Debug("proxy settings unavailable", "error", err)
		return Decision{}
	}
	d := Select(settings, scheme)
	switch {
	case d.None():
	case d.Shared:
		r.logger.Info("same proxy for all protocols", "proxy", d.Addr())
	default:
		r.logger.Info("proxy selected", "kind", d.Kind.String(), "proxy", d.Addr(), "scheme", scheme)
	}
	return d
}

// The process-wide SOCKS redirect. When installed, every connection the
// engine opens is tunnelled through it regardless of the per-fetch
// decision. Concurrent installs race and the last writer wins.
var processSOCKS atomic.Pointer[Decision]

// InstallProcessSOCKS makes d the SOCKS server for all later connections.
func InstallProcessSOCKS(d Decision) {
	if d.Kind != KindSOCKS {
		return
	}
	processSOCKS.Store(&d)
}

// ProcessSOCKS returns the installed redirect, if any.
func ProcessSOCKS() (Decision, bool) {
	d := processSOCKS.Load()
	if d == nil {
		return Decision{}, false
	}
	return *d, true
}

// ClearProcessSOCKS removes the redirect.
func ClearProcessSOCKS() { processSOCKS.Store(nil) }
