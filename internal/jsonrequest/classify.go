package jsonrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"syscall"
)

// classify maps a low-level failure onto a Kind. known is false when err
// fell through to the default arm and deserves a warning.
func classify(err error) (kind Kind, known bool) {
	var jrErr *Error
	if errors.As(err, &jrErr) {
		return jrErr.Kind, true
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		isTimeout(err):
		return KindNoResponse, true
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET):
		return KindNoResponse, true
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindBadURL, true
	}

	var (
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		escapeErr  url.EscapeError
		invalidErr url.InvalidHostError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return KindBadResponse, true
	case errors.As(err, &escapeErr), errors.As(err, &invalidErr):
		return KindBadURL, true
	}
	return KindBadURL, false
}

// isTimeout looks for Timeout() at every level of the wrap chain, not just
// the first net.Error.
func isTimeout(err error) bool {
	for err != nil {
		if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// Classify converts any failure into an *Error. Unexpected causes are
// logged at warn level with their detail and reported as bad URL.
func Classify(logger *slog.Logger, target string, err error) *Error {
	if err == nil {
		return nil
	}
	var jrErr *Error
	if errors.As(err, &jrErr) {
		return jrErr
	}

	kind, known := classify(err)
	if !known {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("unexpected fetch failure",
			"url", target,
			"error_type", errorType(err),
			"error", err,
		)
	}
	return newError(kind, err)
}

func errorType(err error) string {
	// Unwrap url.Error so the log names the transport failure, not the wrapper.
	var uErr *url.Error
	if errors.As(err, &uErr) && uErr.Err != nil {
		err = uErr.Err
	}
	return fmt.Sprintf("%T", err)
}
