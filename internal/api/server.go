package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
	"github.com/dgnsrekt/jsonrequest/internal/relay"
	"github.com/dgnsrekt/jsonrequest/internal/service"
)

type Service interface {
	Origin() string
	Get(ctx context.Context, args jsonrequest.GetArgs) (any, error)
	Post(ctx context.Context, args jsonrequest.PostArgs) (any, error)
	GetAsync(args jsonrequest.GetArgs, cb jsonrequest.Callback)
	PostAsync(args jsonrequest.PostArgs, cb jsonrequest.Callback)
	Proxies(ctx context.Context) []service.ProxyStatus
}

// NewServer builds the HTTP handler. broker may be nil, in which case the
// event stream is not mounted.
func NewServer(svc Service, broker *relay.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig(jsonrequest.Name+" API", jsonrequest.Version)
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write(docsPage(svc.Origin())); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/callbacks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(callbackDocsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	if broker != nil {
		router.Get("/api/v1/events", relay.SSEHandler(broker))
	}
	router.Get("/api/v1/ws", wsHandler(svc))

	registerFetchHandlers(api, svc)
	registerMiscHandlers(api, svc, broker)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var jrErr *jsonrequest.Error
	if errors.As(err, &jrErr) {
		msg := fmt.Sprintf("%s: %s", jsonrequest.Category, jrErr.Message())
		switch jrErr.Kind {
		case jsonrequest.KindBadURL, jsonrequest.KindBadTimeout:
			return huma.Error400BadRequest(msg)
		case jsonrequest.KindNoResponse:
			return huma.Error504GatewayTimeout(msg)
		case jsonrequest.KindBadResponse, jsonrequest.KindNotOk:
			return huma.Error502BadGateway(msg)
		default:
			return huma.Error500InternalServerError(msg)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return huma.Error504GatewayTimeout("request abandoned before the fetch finished")
	}
	return huma.Error500InternalServerError(err.Error())
}
