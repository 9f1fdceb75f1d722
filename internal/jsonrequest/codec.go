package jsonrequest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var errTrailingData = errors.New("trailing data after JSON value")

// DecodeValue parses data as exactly one JSON value. Numbers come back as
// json.Number so integers wider than a float64 mantissa keep every digit.
func DecodeValue(data []byte) (any, error) {
	var v any
	if err := decodeInto(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeInto is DecodeValue for a caller-supplied target; interface-typed
// fields inside v also receive json.Number.
func decodeInto(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return err
	}
	return nil
}

// DecodeArgs fills args from raw with the same number handling as
// DecodeValue. Empty raw leaves args untouched.
func DecodeArgs(raw []byte, args any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decodeInto(raw, args)
}
