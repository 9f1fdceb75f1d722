package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

// Protocol errors on the callback socket use their own kind so they can't
// be mistaken for fetch outcomes.
const protocolErrorKind = "ProtocolError"

type wsRequest struct {
	ID   string          `json:"id"`
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args"`
}

// wsReply is the union of both reply shapes. Completions always carry
// value, even when it is null; errors carry kind and message.
type wsReply struct {
	ID       string `json:"id"`
	Callback string `json:"callback"`
	Value    any    `json:"value,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Message  string `json:"message,omitempty"`
}

type wsComplete struct {
	ID       string `json:"id"`
	Callback string `json:"callback"`
	Value    any    `json:"value"`
}

// wsConn serializes writes from concurrent fetch callbacks.
type wsConn struct {
	mu     sync.Mutex
	conn   io.Writer
	closed bool
}

func (c *wsConn) send(reply wsReply) {
	var frame any = reply
	if reply.Callback == jsonrequest.OutcomeComplete {
		frame = wsComplete{ID: reply.ID, Callback: reply.Callback, Value: reply.Value}
	}
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Warn("ws reply not encodable", "id", reply.ID, "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err := wsutil.WriteServerText(c.conn, data); err != nil {
		slog.Debug("ws write failed", "id", reply.ID, "error", err)
	}
}

func (c *wsConn) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *wsConn) callback(id string) jsonrequest.Callback {
	return jsonrequest.CallbackFuncs{
		OnComplete: func(value any) {
			c.send(wsReply{ID: id, Callback: jsonrequest.OutcomeComplete, Value: value})
		},
		OnError: func(kind, message string) {
			c.send(wsReply{ID: id, Callback: jsonrequest.OutcomeError, Kind: kind, Message: message})
		},
	}
}

// wsHandler accepts fetch calls over a WebSocket and answers each one
// asynchronously as its outcome arrives. Replies carry the call id, so
// they may arrive in any order.
func wsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Debug("ws upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		c := &wsConn{conn: conn}
		defer c.close()

		for {
			data, err := wsutil.ReadClientText(conn)
			if err != nil {
				slog.Debug("ws read ended", "error", err)
				return
			}

			var req wsRequest
			if err := json.Unmarshal(data, &req); err != nil {
				c.send(wsReply{Callback: jsonrequest.OutcomeError, Kind: protocolErrorKind, Message: "malformed frame"})
				continue
			}
			if req.ID == "" {
				req.ID = uuid.NewString()
			}

			switch req.Op {
			case "get":
				var args jsonrequest.GetArgs
				if err := jsonrequest.DecodeArgs(req.Args, &args); err != nil {
					c.send(wsReply{ID: req.ID, Callback: jsonrequest.OutcomeError, Kind: protocolErrorKind, Message: "malformed args"})
					continue
				}
				svc.GetAsync(args, c.callback(req.ID))
			case "post":
				var args jsonrequest.PostArgs
				if err := jsonrequest.DecodeArgs(req.Args, &args); err != nil {
					c.send(wsReply{ID: req.ID, Callback: jsonrequest.OutcomeError, Kind: protocolErrorKind, Message: "malformed args"})
					continue
				}
				svc.PostAsync(args, c.callback(req.ID))
			default:
				c.send(wsReply{ID: req.ID, Callback: jsonrequest.OutcomeError, Kind: protocolErrorKind, Message: "unknown op " + req.Op})
			}
		}
	}
}
