package jsonrequest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseOrigin validates the base URI every relative URL is resolved
// against.
func ParseOrigin(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("origin %q: not an absolute URI", raw)
	}
	return u, nil
}

// ResolveURL merges relative onto origin using RFC 3986 reference
// resolution. Absolute references replace the origin entirely. relative
// must already be a valid URI reference; nothing is escaped on the
// caller's behalf. The result must be an http or https URL with a host.
func ResolveURL(origin *url.URL, relative string) (*url.URL, error) {
	if origin == nil {
		return nil, newError(KindBadURL, fmt.Errorf("no origin"))
	}
	if err := checkReference(relative); err != nil {
		return nil, newError(KindBadURL, err)
	}
	ref, err := url.Parse(relative)
	if err != nil {
		return nil, newError(KindBadURL, err)
	}
	u := origin.ResolveReference(ref)

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, newError(KindBadURL, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Hostname() == "" {
		return nil, newError(KindBadURL, fmt.Errorf("no host in %q", u.String()))
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err != nil || n < 1 || n > 65535 {
			return nil, newError(KindBadURL, fmt.Errorf("bad port %q", p))
		}
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}

// requestTarget is the path sent on the request line: the path, "/" when
// empty, plus "?query" when present.
func requestTarget(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

// checkReference rejects any byte outside the RFC 3986 character set and
// any '%' not followed by two hex digits. url.Parse is more lenient and
// would quietly escape spaces, quotes and the like.
func checkReference(ref string) error {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c == '%':
			if i+2 >= len(ref) || !isHex(ref[i+1]) || !isHex(ref[i+2]) {
				end := min(i+3, len(ref))
				return url.EscapeError(ref[i:end])
			}
			i += 2
		case isUnreserved(c), strings.IndexByte(":/?#[]@!$&'()*+,;=", c) >= 0:
		default:
			return fmt.Errorf("invalid character %q in URI reference at offset %d", c, i)
		}
	}
	return nil
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
