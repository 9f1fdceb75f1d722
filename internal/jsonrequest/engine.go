// Package jsonrequest implements the client side of the JSONRequest
// convention: one GET or POST per call, fixed application/jsonrequest
// headers, 200-only success and a JSON response body.
//
// Every call runs on its own goroutine and reports exactly one Outcome.
// The only state shared between calls is the immutable origin and, when
// enabled, the process-wide SOCKS redirect in package proxy.
package jsonrequest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dgnsrekt/jsonrequest/internal/proxy"
	"github.com/google/uuid"
)

// Service metadata.
const (
	Name    = "JSONRequest"
	Version = "1.1.1"
)

// DefaultUserAgent identifies the service when none is configured.
const DefaultUserAgent = "jsonrequest/" + Version

// Engine performs fetches against a fixed origin.
type Engine struct {
	origin       *url.URL
	resolver     *proxy.Resolver
	userAgent    string
	logger       *slog.Logger
	processSOCKS bool
	observers    []func(Report)
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver sets the proxy resolver. The default never proxies.
func WithResolver(r *proxy.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Engine) { e.userAgent = ua }
}

// WithProcessSOCKS makes a selected SOCKS proxy apply to every later
// connection in the process instead of only the fetch that selected it.
func WithProcessSOCKS(enabled bool) Option {
	return func(e *Engine) { e.processSOCKS = enabled }
}

// WithObserver registers fn to receive a Report for every finished fetch.
// fn runs on the fetch goroutine before the callback.
func WithObserver(fn func(Report)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// New returns an Engine resolving relative URLs against origin.
func New(origin string, opts ...Option) (*Engine, error) {
	u, err := ParseOrigin(origin)
	if err != nil {
		return nil, err
	}
	e := &Engine{origin: u, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.resolver == nil {
		e.resolver = proxy.NewResolver(proxy.Disabled, e.logger)
	}
	return e, nil
}

// Origin returns a copy of the base URI.
func (e *Engine) Origin() *url.URL {
	u := *e.origin
	return &u
}

// Get performs the host "get" operation.
func (e *Engine) Get(args GetArgs, cb Callback) {
	e.Fetch(args.URL, nil, args.Timeout, cb)
}

// Post performs the host "post" operation.
func (e *Engine) Post(args PostArgs, cb Callback) {
	e.Fetch(args.URL, args.Send, args.Timeout, cb)
}

// Fetch starts one request and returns immediately. A negative timeout is
// reported on the calling goroutine; everything else is reported from the
// fetch goroutine.
func (e *Engine) Fetch(relativeURL string, payload any, timeoutMillis *int, cb Callback) {
	e.Dispatch(RequestSpec{RelativeURL: relativeURL, Payload: payload, TimeoutMillis: timeoutMillis}, cb)
}

// Dispatch is Fetch for a prepared RequestSpec.
func (e *Engine) Dispatch(spec RequestSpec, cb Callback) {
	timeout, err := normalizeTimeout(spec.TimeoutMillis)
	if err != nil {
		e.reject(spec, err).Deliver(cb)
		return
	}
	go func() {
		e.execute(spec, timeout).Deliver(cb)
	}()
}

// FetchAsync starts one request and returns a channel that receives its
// Outcome and is then closed.
func (e *Engine) FetchAsync(spec RequestSpec) <-chan Outcome {
	ch := make(chan Outcome, 1)
	timeout, err := normalizeTimeout(spec.TimeoutMillis)
	if err != nil {
		ch <- e.reject(spec, err)
		close(ch)
		return ch
	}
	go func() {
		ch <- e.execute(spec, timeout)
		close(ch)
	}()
	return ch
}

// reject builds the outcome for a call refused before any work started.
func (e *Engine) reject(spec RequestSpec, err error) Outcome {
	out := failed(Classify(e.logger, spec.RelativeURL, err))
	e.observe(newReport(uuid.NewString(), time.Now(), ResolvedRequest{}, spec.RelativeURL, proxy.Decision{}, out))
	return out
}

// execute is the body of one fetch goroutine. It always returns an
// Outcome; panics are recovered and classified like any other failure.
func (e *Engine) execute(spec RequestSpec, timeout time.Duration) (out Outcome) {
	id := uuid.NewString()
	started := time.Now()
	log := e.logger.With("fetch_id", id)

	var (
		req      ResolvedRequest
		decision proxy.Decision
	)
	defer func() {
		if r := recover(); r != nil {
			out = failed(Classify(log, spec.RelativeURL, fmt.Errorf("panic: %v", r)))
		}
		e.observe(newReport(id, started, req, spec.RelativeURL, decision, out))
	}()

	req, err := resolve(e.origin, spec, timeout)
	if err != nil {
		return failed(Classify(log, spec.RelativeURL, err))
	}

	decision = e.resolveProxy(req.URL.Scheme)

	value, err := e.roundTrip(log, req, decision)
	if err != nil {
		return failed(Classify(log, req.URL.String(), err))
	}
	log.Debug("fetch complete", "method", req.Method, "url", req.URL.String(), "duration_ms", time.Since(started).Milliseconds())
	return Outcome{Value: value}
}

func (e *Engine) resolveProxy(scheme string) proxy.Decision {
	d := e.resolver.Resolve(context.Background(), scheme)
	if e.processSOCKS && d.Kind == proxy.KindSOCKS {
		proxy.InstallProcessSOCKS(d)
	}
	return d
}

func (e *Engine) roundTrip(log *slog.Logger, req ResolvedRequest, d proxy.Decision) (any, error) {
	client, tr, err := newClient(d, req.Timeout)
	if err != nil {
		return nil, err
	}
	defer tr.CloseIdleConnections()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequest(req.Method, req.URL.String(), body)
	if err != nil {
		return nil, newError(KindBadURL, err)
	}
	hreq.Header.Set("Content-Type", ContentType)
	hreq.Header.Set("Accept", ContentType)
	hreq.Header.Set("Content-Encoding", ContentEncoding)
	hreq.Header.Set("User-Agent", e.userAgent)

	log.Debug("sending request",
		"method", req.Method,
		"host", req.URL.Host,
		"target", req.Target(),
		"proxy", d.String(),
		"timeout_s", req.TimeoutSeconds(),
	)

	resp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Warn("unexpected response status", "status", resp.StatusCode, "url", req.URL.String())
		return nil, &Error{Kind: KindNotOk, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	value, err := DecodeValue(data)
	if err != nil {
		return nil, newError(KindBadResponse, err)
	}
	return value, nil
}

func (e *Engine) observe(r Report) {
	for _, fn := range e.observers {
		fn(r)
	}
}
