package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
	"github.com/dgnsrekt/jsonrequest/internal/relay"
	"github.com/dgnsrekt/jsonrequest/internal/service"
)

type stubService struct {
	value   any
	err     error
	gotGet  jsonrequest.GetArgs
	gotPost jsonrequest.PostArgs
}

func (s *stubService) Origin() string { return "http://origin.test" }

func (s *stubService) Get(ctx context.Context, args jsonrequest.GetArgs) (any, error) {
	s.gotGet = args
	return s.value, s.err
}

func (s *stubService) Post(ctx context.Context, args jsonrequest.PostArgs) (any, error) {
	s.gotPost = args
	return s.value, s.err
}

func (s *stubService) GetAsync(args jsonrequest.GetArgs, cb jsonrequest.Callback) {
	go func() {
		if strings.Contains(args.URL, "missing") {
			cb.Error(jsonrequest.Category, "not ok")
			return
		}
		cb.Complete(map[string]any{"url": args.URL})
	}()
}

func (s *stubService) PostAsync(args jsonrequest.PostArgs, cb jsonrequest.Callback) {
	go cb.Complete(args.Send)
}

func (s *stubService) Proxies(ctx context.Context) []service.ProxyStatus {
	return []service.ProxyStatus{{Scheme: "http", Kind: "none"}, {Scheme: "https", Kind: "socks", Host: "s1", Port: 1080}}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDocsDarkMode(t *testing.T) {
	h := NewServer(&stubService{}, nil)
	w := doJSON(t, h, http.MethodGet, "/docs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
	if !strings.Contains(w.Body.String(), "<title>JSONRequest "+jsonrequest.Version+" API</title>") {
		t.Fatalf("docs missing versioned title")
	}
	if !strings.Contains(w.Body.String(), "origin: http://origin.test") {
		t.Fatalf("docs missing origin banner")
	}
}

func TestHealthReportsEventStats(t *testing.T) {
	b := relay.NewBroker(1)
	b.Publish(relay.Event{Feed: jsonrequest.OutcomeError, ID: "e1"})
	h := NewServer(&stubService{}, b)

	w := doJSON(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Events *relay.Stats `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", w.Body.String(), err)
	}
	if body.Events == nil || body.Events.Published["error"] != 1 || body.Events.Clients != 0 {
		t.Fatalf("events = %+v; want one error published, no clients", body.Events)
	}
}

func TestRequestLoggerRecordsFetchOutcome(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := NewServer(&stubService{err: &jsonrequest.Error{Kind: jsonrequest.KindNotOk, Status: 500}}, nil)
	doJSON(t, h, http.MethodPost, "/api/v1/get", `{"url":"/broken"}`)
	out := buf.String()
	for _, want := range []string{"fetch_url=/broken", "fetch_outcome=error", `fetch_error="not ok"`, "status=502"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log = %q; want %s", out, want)
		}
	}

	buf.Reset()
	doJSON(t, h, http.MethodGet, "/health", "")
	if strings.Contains(buf.String(), "fetch_outcome") {
		t.Fatalf("log = %q; want no fetch attributes outside /api/v1", buf.String())
	}
}

func TestHealth(t *testing.T) {
	h := NewServer(&stubService{}, nil)
	w := doJSON(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", w.Body.String(), err)
	}
	if body["status"] != "ok" || body["version"] != jsonrequest.Version || body["origin"] != "http://origin.test" {
		t.Fatalf("health = %v", body)
	}
}

func TestGetEndpoint(t *testing.T) {
	svc := &stubService{value: map[string]any{"n": 1.0}}
	h := NewServer(svc, nil)

	w := doJSON(t, h, http.MethodPost, "/api/v1/get", `{"url":"/quote?s=1","timeout":250}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.gotGet.URL != "/quote?s=1" || svc.gotGet.Timeout == nil || *svc.gotGet.Timeout != 250 {
		t.Fatalf("service got %+v", svc.gotGet)
	}
	var body struct {
		Value map[string]any `json:"value"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", w.Body.String(), err)
	}
	if body.Value["n"] != 1.0 {
		t.Fatalf("value = %v; want n=1", body.Value)
	}
}

func TestPostEndpointPassesPayload(t *testing.T) {
	svc := &stubService{value: true}
	h := NewServer(svc, nil)

	w := doJSON(t, h, http.MethodPost, "/api/v1/post", `{"url":"/orders","send":{"qty":3}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	send, ok := svc.gotPost.Send.(map[string]any)
	if !ok || send["qty"] != 3.0 {
		t.Fatalf("service got send = %#v", svc.gotPost.Send)
	}
	if svc.gotPost.Timeout != nil {
		t.Fatalf("timeout = %v; want nil", *svc.gotPost.Timeout)
	}
}

func TestFetchErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		kind jsonrequest.Kind
		want int
	}{
		{jsonrequest.KindBadURL, http.StatusBadRequest},
		{jsonrequest.KindBadTimeout, http.StatusBadRequest},
		{jsonrequest.KindNoResponse, http.StatusGatewayTimeout},
		{jsonrequest.KindBadResponse, http.StatusBadGateway},
		{jsonrequest.KindNotOk, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.kind.Message(), func(t *testing.T) {
			h := NewServer(&stubService{err: &jsonrequest.Error{Kind: tt.kind}}, nil)
			w := doJSON(t, h, http.MethodPost, "/api/v1/get", `{"url":"/x"}`)
			if w.Code != tt.want {
				t.Fatalf("status = %d; want %d", w.Code, tt.want)
			}
			want := "JSONRequestError: " + tt.kind.Message()
			if !strings.Contains(w.Body.String(), want) {
				t.Fatalf("body = %s; want it to contain %q", w.Body.String(), want)
			}
		})
	}
}

func TestProxyEndpoint(t *testing.T) {
	h := NewServer(&stubService{}, nil)
	w := doJSON(t, h, http.MethodGet, "/api/v1/proxy", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Proxies []service.ProxyStatus `json:"proxies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", w.Body.String(), err)
	}
	if len(body.Proxies) != 2 || body.Proxies[1].Kind != "socks" || body.Proxies[1].Port != 1080 {
		t.Fatalf("proxies = %+v", body.Proxies)
	}
}

func TestEventsMountedOnlyWithBroker(t *testing.T) {
	h := NewServer(&stubService{}, nil)
	if w := doJSON(t, h, http.MethodGet, "/api/v1/events", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status without broker = %d; want 404", w.Code)
	}

	srv := httptest.NewServer(NewServer(&stubService{}, relay.NewBroker(4)))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("events = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestWebSocketCallbacks(t *testing.T) {
	srv := httptest.NewServer(NewServer(&stubService{}, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws")
	if err != nil {
		t.Fatalf("ws.Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	frames := []string{
		`{"id":"a","op":"get","args":{"url":"/ok"}}`,
		`{"id":"b","op":"get","args":{"url":"/missing"}}`,
		`{"id":"c","op":"post","args":{"url":"/p","send":[1,2]}}`,
		`{"id":"e","op":"post","args":{"url":"/p","send":{"n":9007199254740993}}}`,
		`{"id":"d","op":"delete"}`,
		`not json`,
	}
	for _, f := range frames {
		if err := wsutil.WriteClientText(conn, []byte(f)); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}

	got := map[string]wsReply{}
	raw := map[string]string{}
	for len(got) < len(frames) {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			t.Fatalf("read: %v (have %v)", err, got)
		}
		var r wsReply
		if err := json.Unmarshal(data, &r); err != nil {
			t.Fatalf("reply %q: %v", data, err)
		}
		got[r.ID] = r
		raw[r.ID] = string(data)
	}

	if r := got["a"]; r.Callback != "complete" {
		t.Fatalf("a = %+v; want complete", r)
	}
	if r := got["b"]; r.Callback != "error" || r.Kind != jsonrequest.Category || r.Message != "not ok" {
		t.Fatalf("b = %+v; want JSONRequestError not ok", r)
	}
	if r := got["c"]; r.Callback != "complete" {
		t.Fatalf("c = %+v; want complete", r)
	}
	if !strings.Contains(raw["e"], `{"n":9007199254740993}`) {
		t.Fatalf("e = %s; want the integer echoed exactly", raw["e"])
	}
	if r := got["d"]; r.Kind != protocolErrorKind {
		t.Fatalf("d = %+v; want protocol error", r)
	}
	if r := got[""]; r.Kind != protocolErrorKind || r.Message != "malformed frame" {
		t.Fatalf("malformed frame reply = %+v", r)
	}
}
