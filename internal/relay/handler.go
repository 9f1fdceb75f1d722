package relay

import (
	"fmt"
	"net/http"
	"strings"
)

// filter selects which events a client receives. A nil set accepts all.
type filter struct {
	feeds map[string]bool
	hosts map[string]bool
}

func parseFilter(r *http.Request) filter {
	q := r.URL.Query()
	return filter{
		feeds: csvSet(q.Get("feeds")),
		hosts: csvSet(strings.ToLower(q.Get("hosts"))),
	}
}

func csvSet(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = true
		}
	}
	return set
}

func (f filter) accepts(evt Event) bool {
	if f.feeds != nil && !f.feeds[evt.Feed] {
		return false
	}
	if f.hosts != nil && !f.hosts[evt.Host] {
		return false
	}
	return true
}

// SSEHandler streams fetch outcomes as Server-Sent Events. Clients narrow
// the stream with ?feeds=complete,error and ?hosts=api.example.com.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		f := parseFilter(r)

		// Subscribe before the headers go out so a client that has seen the
		// response cannot miss the next fetch.
		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if !f.accepts(evt) {
					continue
				}
				if evt.ID != "" {
					_, _ = fmt.Fprintf(w, "id: %s\n", evt.ID)
				}
				_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Feed, evt.Payload)
				flusher.Flush()
			}
		}
	}
}
