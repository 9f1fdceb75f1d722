package jsonrequest

import (
	"time"

	"github.com/dgnsrekt/jsonrequest/internal/proxy"
)

// Callback receives the result of one fetch. Exactly one of its methods is
// called, exactly once.
type Callback interface {
	Complete(value any)
	Error(kind, message string)
}

// CallbackFuncs adapts two functions to Callback. Nil fields are skipped.
type CallbackFuncs struct {
	OnComplete func(value any)
	OnError    func(kind, message string)
}

func (c CallbackFuncs) Complete(value any) {
	if c.OnComplete != nil {
		c.OnComplete(value)
	}
}

func (c CallbackFuncs) Error(kind, message string) {
	if c.OnError != nil {
		c.OnError(kind, message)
	}
}

// Outcome is the single result of a fetch: a decoded value or an error.
type Outcome struct {
	Value any
	Err   *Error
}

// OK reports whether the fetch completed.
func (o Outcome) OK() bool { return o.Err == nil }

// Deliver hands the outcome to cb.
func (o Outcome) Deliver(cb Callback) {
	if cb == nil {
		return
	}
	if o.Err != nil {
		cb.Error(Category, o.Err.Message())
		return
	}
	cb.Complete(o.Value)
}

func failed(err *Error) Outcome { return Outcome{Err: err} }

// Report describes a finished fetch for observers such as the outcome
// journal and the event feed.
type Report struct {
	ID         string    `json:"id"`
	Method     string    `json:"method,omitempty"`
	URL        string    `json:"url"`
	Proxy      string    `json:"proxy"`
	Status     int       `json:"status,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	Value      any       `json:"value,omitempty"`
}

const (
	OutcomeComplete = "complete"
	OutcomeError    = "error"
)

func newReport(id string, started time.Time, req ResolvedRequest, requested string, d proxy.Decision, o Outcome) Report {
	r := Report{
		ID:         id,
		Method:     req.Method,
		URL:        requested,
		Proxy:      d.String(),
		StartedAt:  started.UTC(),
		DurationMS: time.Since(started).Milliseconds(),
		Outcome:    OutcomeComplete,
		Value:      o.Value,
	}
	if req.URL != nil {
		r.URL = req.URL.String()
	}
	if o.Err != nil {
		r.Outcome = OutcomeError
		r.Message = o.Err.Message()
		r.Status = o.Err.Status
	} else {
		r.Status = 200
	}
	return r
}
