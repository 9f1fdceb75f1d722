package jsonrequest

import "fmt"

// Category is the single error name reported to callers.
const Category = "JSONRequestError"

// Kind is the closed set of failures a fetch can report.
type Kind int

const (
	KindBadURL Kind = iota + 1
	KindBadTimeout
	KindNoResponse
	KindBadResponse
	KindNotOk
)

// Message is the caller-visible text for k.
func (k Kind) Message() string {
	switch k {
	case KindBadTimeout:
		return "bad timeout"
	case KindNoResponse:
		return "no response"
	case KindBadResponse:
		return "bad response"
	case KindNotOk:
		return "not ok"
	default:
		return "bad URL"
	}
}

func (k Kind) String() string { return k.Message() }

// Error is a classified fetch failure. Cause and Status are diagnostic
// only; callers see Category and Message.
type Error struct {
	Kind   Kind
	Status int
	Cause  error
}

func (e *Error) Message() string { return e.Kind.Message() }

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", Category, e.Kind.Message())
	}
	return fmt.Sprintf("%s: %s: %v", Category, e.Kind.Message(), e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}
