// Package service exposes the fetch engine to the HTTP, WebSocket and CLI
// front ends.
package service

import (
	"context"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
	"github.com/dgnsrekt/jsonrequest/internal/proxy"
)

// ProxyStatus is the proxy decision currently in effect for one scheme.
type ProxyStatus struct {
	Scheme       string `json:"scheme"`
	Kind         string `json:"kind"`
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	Shared       bool   `json:"shared"`
	ProcessSOCKS string `json:"process_socks,omitempty"`
}

// Service wraps a fetch engine and the resolver it consults.
type Service struct {
	engine   *jsonrequest.Engine
	resolver *proxy.Resolver
}

func NewService(engine *jsonrequest.Engine, resolver *proxy.Resolver) *Service {
	if resolver == nil {
		resolver = proxy.NewResolver(proxy.Disabled, nil)
	}
	return &Service{engine: engine, resolver: resolver}
}

// Origin is the base URI relative URLs resolve against.
func (s *Service) Origin() string {
	return s.engine.Origin().String()
}

// Get fetches args.URL and waits for the outcome or ctx. The returned error
// is a *jsonrequest.Error for fetch failures and ctx.Err() otherwise.
func (s *Service) Get(ctx context.Context, args jsonrequest.GetArgs) (any, error) {
	return s.wait(ctx, jsonrequest.RequestSpec{RelativeURL: args.URL, TimeoutMillis: args.Timeout})
}

// Post sends args.Send to args.URL and waits for the outcome or ctx.
func (s *Service) Post(ctx context.Context, args jsonrequest.PostArgs) (any, error) {
	return s.wait(ctx, jsonrequest.RequestSpec{RelativeURL: args.URL, Payload: args.Send, TimeoutMillis: args.Timeout})
}

// GetAsync starts a GET and reports through cb.
func (s *Service) GetAsync(args jsonrequest.GetArgs, cb jsonrequest.Callback) {
	s.engine.Get(args, cb)
}

// PostAsync starts a POST and reports through cb.
func (s *Service) PostAsync(args jsonrequest.PostArgs, cb jsonrequest.Callback) {
	s.engine.Post(args, cb)
}

// Proxies returns the decision for http and https targets.
func (s *Service) Proxies(ctx context.Context) []ProxyStatus {
	global := ""
	if d, ok := proxy.ProcessSOCKS(); ok {
		global = d.Addr()
	}
	out := make([]ProxyStatus, 0, 2)
	for _, scheme := range []string{"http", "https"} {
		d := s.resolver.Resolve(ctx, scheme)
		out = append(out, ProxyStatus{
			Scheme:       scheme,
			Kind:         d.Kind.String(),
			Host:         d.Host,
			Port:         d.Port,
			Shared:       d.Shared,
			ProcessSOCKS: global,
		})
	}
	return out
}

func (s *Service) wait(ctx context.Context, spec jsonrequest.RequestSpec) (any, error) {
	select {
	case out := <-s.engine.FetchAsync(spec):
		if out.Err != nil {
			return nil, out.Err
		}
		return out.Value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
