package jsonrequest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	var syntaxErr error
	if err := json.Unmarshal([]byte("{"), new(any)); err != nil {
		syntaxErr = err
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, want: "no response"},
		{name: "read deadline", err: &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}, want: "no response"},
		{name: "wrapped timeout", err: &url.Error{Op: "Get", URL: "http://x", Err: fmt.Errorf("broken: %w", &net.OpError{Op: "read", Err: os.ErrDeadlineExceeded})}, want: "no response"},
		{name: "eof", err: &url.Error{Op: "Get", URL: "http://x", Err: io.EOF}, want: "no response"},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, want: "no response"},
		{name: "reset", err: &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, want: "no response"},
		{name: "refused", err: &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}}, want: "bad URL"},
		{name: "json syntax", err: syntaxErr, want: "bad response"},
		{name: "escape", err: url.EscapeError("%zz"), want: "bad URL"},
		{name: "status", err: &Error{Kind: KindNotOk, Status: 500}, want: "not ok"},
		{name: "timeout kind", err: &Error{Kind: KindBadTimeout}, want: "bad timeout"},
		{name: "unknown", err: errors.New("tls: handshake failure"), want: "bad URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(slog.New(slog.NewTextHandler(io.Discard, nil)), "http://x", tt.err)
			if got.Message() != tt.want {
				t.Fatalf("Classify(%v) = %q; want %q", tt.err, got.Message(), tt.want)
			}
			if !errors.Is(got, tt.err) && got != tt.err {
				t.Fatalf("Classify(%v) lost its cause", tt.err)
			}
		})
	}
}

func TestClassifyLogsUnexpectedFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Classify(logger, "/path", errors.New("something odd"))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "something odd") || !strings.Contains(out, "url=/path") {
		t.Fatalf("log = %q; want warn entry with cause and url", out)
	}

	buf.Reset()
	Classify(logger, "/path", io.EOF)
	if buf.Len() != 0 {
		t.Fatalf("log = %q; want no entry for a known failure", buf.String())
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil, "", nil); got != nil {
		t.Fatalf("Classify(nil) = %v; want nil", got)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindBadURL, "bad URL"},
		{KindBadTimeout, "bad timeout"},
		{KindNoResponse, "no response"},
		{KindBadResponse, "bad response"},
		{KindNotOk, "not ok"},
	}
	for _, tt := range tests {
		if got := tt.kind.Message(); got != tt.want {
			t.Fatalf("Kind(%d).Message() = %q; want %q", tt.kind, got, tt.want)
		}
	}

	err := &Error{Kind: KindNotOk, Status: 404}
	if got := err.Error(); got != "JSONRequestError: not ok" {
		t.Fatalf("Error() = %q; want %q", got, "JSONRequestError: not ok")
	}
}

func TestOutcomeDeliver(t *testing.T) {
	var completes, errs int
	cb := CallbackFuncs{
		OnComplete: func(any) { completes++ },
		OnError: func(kind, message string) {
			errs++
			if kind != Category || message != "no response" {
				t.Fatalf("Error(%q, %q); want (%q, %q)", kind, message, Category, "no response")
			}
		},
	}

	Outcome{Value: 1}.Deliver(cb)
	Outcome{Err: &Error{Kind: KindNoResponse}}.Deliver(cb)
	Outcome{}.Deliver(nil)

	if completes != 1 || errs != 1 {
		t.Fatalf("completes = %d, errors = %d; want 1 and 1", completes, errs)
	}
}
