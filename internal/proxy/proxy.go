// Package proxy picks the network proxy a single fetch should go through.
//
// Settings come from a SettingsProvider in the registry format used by
// Windows Internet Settings: an enable flag plus a ";"-separated list of
// "type=host:port" or bare "host:port" entries. Select is the
// platform-independent part and is safe to call from any goroutine.
package proxy

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// Kind is the type of intermediary a fetch connects through.
type Kind int

const (
	KindNone Kind = iota
	KindHTTP
	KindHTTPS
	KindSOCKS
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindHTTPS:
		return "https"
	case KindSOCKS:
		return "socks"
	default:
		return "none"
	}
}

const (
	defaultHTTPPort  = 80
	defaultSOCKSPort = 1080
)

// Settings is one snapshot of the host proxy configuration.
type Settings struct {
	Enabled bool   `json:"enabled" yaml:"proxy_enable"`
	Server  string `json:"server" yaml:"proxy_server"`
}

// Decision is the proxy chosen for one fetch. The zero value means direct.
type Decision struct {
	Kind Kind   `json:"-"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
	// Shared is set when the decision came from an untyped entry that
	// applies to every protocol.
	Shared bool `json:"shared,omitempty"`
}

// None reports whether the fetch connects directly.
func (d Decision) None() bool { return d.Kind == KindNone }

// Addr returns host:port of the proxy.
func (d Decision) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

func (d Decision) String() string {
	if d.None() {
		return "none"
	}
	return fmt.Sprintf("%s %s", d.Kind, d.Addr())
}

type entry struct {
	typ  string // "" for untyped
	host string
	port int
}

// Select applies the first-match rules to settings for a target scheme
// ("http" or "https"). Entries are tried in byte-wise sorted order, so
// "http=..." sorts before "socks=..." and before most bare entries.
func Select(s Settings, scheme string) Decision {
	if !s.Enabled || strings.TrimSpace(s.Server) == "" {
		return Decision{}
	}

	candidates := strings.Split(s.Server, ";")
	sort.Strings(candidates)

	scheme = strings.ToLower(scheme)
	for _, c := range candidates {
		e, ok := parseEntry(c)
		if !ok {
			continue
		}
		switch e.typ {
		case "":
			return Decision{Kind: schemeKind(scheme), Host: e.host, Port: e.port, Shared: true}
		case "http", "https":
			if e.typ == scheme {
				return Decision{Kind: schemeKind(e.typ), Host: e.host, Port: e.port}
			}
		case "socks":
			return Decision{Kind: KindSOCKS, Host: e.host, Port: e.port}
		}
	}
	return Decision{}
}

func schemeKind(scheme string) Kind {
	if scheme == "https" {
		return KindHTTPS
	}
	return KindHTTP
}

// parseEntry splits "type=host:port" or "host:port". A missing port takes
// the protocol default; a malformed one drops the entry.
func parseEntry(raw string) (entry, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entry{}, false
	}

	var e entry
	addr := raw
	if typ, rest, found := strings.Cut(raw, "="); found {
		e.typ = strings.ToLower(strings.TrimSpace(typ))
		addr = strings.TrimSpace(rest)
	}
	// Some tools write the proxy as a URL; keep only the authority.
	if i := strings.Index(addr, "://"); i >= 0 {
		addr = addr[i+3:]
	}
	addr = strings.TrimSuffix(addr, "/")

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		host, portStr = addr, ""
	}
	if host == "" {
		return entry{}, false
	}
	e.host = host

	if portStr == "" {
		e.port = defaultHTTPPort
		if e.typ == "socks" {
			e.port = defaultSOCKSPort
		}
		return e, true
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return entry{}, false
	}
	e.port = port
	return e, true
}
