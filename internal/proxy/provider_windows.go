//go:build windows

package proxy

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const internetSettingsKey = `Software\Microsoft\Windows\CurrentVersion\Internet Settings`

// registryProvider reads ProxyEnable and ProxyServer from the current user's
// Internet Settings.
type registryProvider struct{}

// SystemProvider returns the provider for the host's own proxy settings.
func SystemProvider() SettingsProvider { return registryProvider{} }

func (registryProvider) ProxySettings(context.Context) (Settings, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, internetSettingsKey, registry.QUERY_VALUE)
	if err != nil {
		return Settings{}, fmt.Errorf("open internet settings: %w", err)
	}
	defer func() { _ = k.Close() }()

	enable, _, err := k.GetIntegerValue("ProxyEnable")
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read ProxyEnable: %w", err)
	}
	if enable != 1 {
		return Settings{}, nil
	}

	server, _, err := k.GetStringValue("ProxyServer")
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read ProxyServer: %w", err)
	}
	return Settings{Enabled: true, Server: server}, nil
}
