package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

type fetchNoteKey struct{}

// fetchNote carries the outcome of a fetch made by an API handler back to
// requestLogger.
type fetchNote struct {
	url     string
	outcome string
	message string
}

// noteFetch records the outcome of a fetch on the request's note, if the
// request has one.
func noteFetch(ctx context.Context, url string, err error) {
	n, ok := ctx.Value(fetchNoteKey{}).(*fetchNote)
	if !ok {
		return
	}
	n.url = url
	if err == nil {
		n.outcome = jsonrequest.OutcomeComplete
		return
	}
	n.outcome = jsonrequest.OutcomeError
	var jrErr *jsonrequest.Error
	if errors.As(err, &jrErr) {
		n.message = jrErr.Message()
	} else {
		n.message = err.Error()
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		var note *fetchNote
		if strings.HasPrefix(r.URL.Path, "/api/v1/") {
			note = &fetchNote{}
			r = r.WithContext(context.WithValue(r.Context(), fetchNoteKey{}, note))
		}
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		}
		if note != nil && note.outcome != "" {
			attrs = append(attrs, "fetch_url", note.url, "fetch_outcome", note.outcome)
			if note.message != "" {
				attrs = append(attrs, "fetch_error", note.message)
			}
		}
		slog.Log(r.Context(), level, "http request", attrs...)
	})
}
