//go:build !windows

package proxy

// SystemProvider returns the provider for the host's own proxy settings.
// Outside Windows there is no system-wide store, so the environment is used.
func SystemProvider() SettingsProvider { return EnvProvider{} }
