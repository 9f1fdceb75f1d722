package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	xproxy "golang.org/x/net/proxy"
)

// ContextDialer opens connections; *net.Dialer satisfies it.
type ContextDialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// Configure points tr at decision d. forward opens the underlying TCP
// connections, either to the target, to an HTTP proxy or to a SOCKS server.
// An installed process-wide SOCKS redirect takes precedence over a direct
// or per-fetch SOCKS route, and also carries connections to HTTP proxies.
func Configure(tr *http.Transport, d Decision, forward ContextDialer) error {
	dialer := forward
	if redirect, ok := ProcessSOCKS(); ok {
		sd, err := SOCKSDialer(redirect, forward)
		if err != nil {
			return err
		}
		dialer = sd
	}

	switch d.Kind {
	case KindNone:
	case KindHTTP, KindHTTPS:
		tr.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: d.Addr()})
	case KindSOCKS:
		if _, installed := ProcessSOCKS(); !installed {
			sd, err := SOCKSDialer(d, forward)
			if err != nil {
				return err
			}
			dialer = sd
		}
	default:
		return fmt.Errorf("unsupported proxy kind %d", d.Kind)
	}

	tr.DialContext = dialer.DialContext
	return nil
}

// SOCKSDialer returns a SOCKS5 dialer for d that reaches the SOCKS server
// through forward.
func SOCKSDialer(d Decision, forward ContextDialer) (ContextDialer, error) {
	var fwd xproxy.Dialer = xproxy.Direct
	if forward != nil {
		fwd = forwardDialer{forward}
	}
	sd, err := xproxy.SOCKS5("tcp", d.Addr(), nil, fwd)
	if err != nil {
		return nil, fmt.Errorf("socks dialer %s: %w", d.Addr(), err)
	}
	cd, ok := sd.(xproxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks dialer %s: no context support", d.Addr())
	}
	return cd, nil
}

// forwardDialer exposes a ContextDialer as both x/net/proxy dialer forms.
type forwardDialer struct {
	ContextDialer
}

func (f forwardDialer) Dial(network, addr string) (net.Conn, error) {
	return f.DialContext(context.Background(), network, addr)
}
