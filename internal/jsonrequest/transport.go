package jsonrequest

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/dgnsrekt/jsonrequest/internal/proxy"
)

// deadlineDialer enforces the open timeout with a dial deadline and wraps
// each connection so every read gets the read timeout. A zero timeout
// means no limit on either, as with net.Dialer and SetReadDeadline.
type deadlineDialer struct {
	timeout time.Duration
}

func (d deadlineDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var nd net.Dialer
	if d.timeout > 0 {
		nd.Deadline = time.Now().Add(d.timeout)
	}
	conn, err := nd.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if d.timeout <= 0 {
		return conn, nil
	}
	return &readTimeoutConn{Conn: conn, timeout: d.timeout}, nil
}

type readTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readTimeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

// newClient builds a single-use client: no keep-alive, no transparent
// compression, no redirects.
func newClient(d proxy.Decision, timeout time.Duration) (*http.Client, *http.Transport, error) {
	tr := &http.Transport{
		DisableKeepAlives:  true,
		DisableCompression: true,
	}
	if err := proxy.Configure(tr, d, deadlineDialer{timeout: timeout}); err != nil {
		return nil, nil, err
	}
	client := &http.Client{
		Transport: tr,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return client, tr, nil
}
