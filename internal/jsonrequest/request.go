package jsonrequest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout applies when a call carries no timeout.
const DefaultTimeout = 10 * time.Second

// Header values sent verbatim on every request.
const (
	ContentType     = "application/jsonrequest"
	ContentEncoding = "identity"
)

var errBadTimeout = errors.New("negative timeout")

// GetArgs are the arguments of the host "get" operation.
type GetArgs struct {
	URL     string `json:"url"`
	Timeout *int   `json:"timeout,omitempty"`
}

// PostArgs are the arguments of the host "post" operation.
type PostArgs struct {
	URL     string `json:"url"`
	Send    any    `json:"send"`
	Timeout *int   `json:"timeout,omitempty"`
}

// RequestSpec is one fetch as requested by the caller.
type RequestSpec struct {
	RelativeURL string
	// Payload selects POST when non-nil; a nil Payload is a GET.
	Payload any
	// TimeoutMillis nil means DefaultTimeout.
	TimeoutMillis *int
}

// Millis is a convenience for building RequestSpec.TimeoutMillis.
func Millis(ms int) *int { return &ms }

// ResolvedRequest is RequestSpec after URL resolution and payload encoding.
type ResolvedRequest struct {
	URL     *url.URL
	Method  string
	Body    []byte
	Timeout time.Duration
}

// TimeoutSeconds is the dial and read timeout in seconds.
func (r ResolvedRequest) TimeoutSeconds() float64 { return r.Timeout.Seconds() }

// Target is the request-line path and query.
func (r ResolvedRequest) Target() string { return requestTarget(r.URL) }

// normalizeTimeout converts the caller's millisecond timeout.
func normalizeTimeout(ms *int) (time.Duration, error) {
	if ms == nil {
		return DefaultTimeout, nil
	}
	if *ms < 0 {
		return 0, newError(KindBadTimeout, errBadTimeout)
	}
	return time.Duration(*ms) * time.Millisecond, nil
}

// resolve turns a RequestSpec into a request against origin.
func resolve(origin *url.URL, spec RequestSpec, timeout time.Duration) (ResolvedRequest, error) {
	u, err := ResolveURL(origin, spec.RelativeURL)
	if err != nil {
		return ResolvedRequest{}, err
	}
	req := ResolvedRequest{URL: u, Method: http.MethodGet, Timeout: timeout}
	if spec.Payload != nil {
		body, err := json.Marshal(spec.Payload)
		if err != nil {
			return ResolvedRequest{}, err
		}
		req.Method = http.MethodPost
		req.Body = body
	}
	return req, nil
}
