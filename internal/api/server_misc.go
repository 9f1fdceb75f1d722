package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
	"github.com/dgnsrekt/jsonrequest/internal/relay"
	"github.com/dgnsrekt/jsonrequest/internal/service"
)

func registerMiscHandlers(api huma.API, svc Service, broker *relay.Broker) {
	type healthOutput struct {
		Body struct {
			Status  string       `json:"status"`
			Name    string       `json:"name"`
			Version string       `json:"version"`
			Origin  string       `json:"origin"`
			Events  *relay.Stats `json:"events,omitempty" doc:"Outcome event stream counters, absent when the stream is off"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			out.Body.Name = jsonrequest.Name
			out.Body.Version = jsonrequest.Version
			out.Body.Origin = svc.Origin()
			if broker != nil {
				st := broker.Stats()
				out.Body.Events = &st
			}
			return out, nil
		})

	type proxyOutput struct {
		Body struct {
			Proxies []service.ProxyStatus `json:"proxies"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "proxy-status", Method: http.MethodGet, Path: "/api/v1/proxy", Summary: "Proxy decision per target scheme", Tags: []string{"Proxy"}},
		func(ctx context.Context, input *struct{}) (*proxyOutput, error) {
			out := &proxyOutput{}
			out.Body.Proxies = svc.Proxies(ctx)
			return out, nil
		})
}
