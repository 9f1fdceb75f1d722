package journal

import (
	"net/url"
	"strings"
)

// HostSegment turns the host of rawURL into a filesystem-safe directory
// name. Ports are kept, joined with an underscore.
func HostSegment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	host := strings.ToLower(parsed.Host)
	host = strings.NewReplacer(":", "_", "[", "", "]", "", "/", "_").Replace(host)
	if host == "" {
		return "unknown"
	}
	return host
}

// ShortID returns the first 8 chars of id.
func ShortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
