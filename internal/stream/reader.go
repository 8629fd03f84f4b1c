// Package stream decodes the line-delimited message protocol record
// streams arrive in: a SCHEMA message naming the stream and declaring its
// shape, followed by RECORD messages, with STATE checkpoints interleaved.
package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/koustreak/IceFlow/internal/errs"
	"github.com/koustreak/IceFlow/internal/jsonschema"
)

// Message types.
const (
	TypeSchema = "SCHEMA"
	TypeRecord = "RECORD"
	TypeState  = "STATE"
)

// Message is one decoded protocol line.
type Message struct {
	Type   string `json:"type"`
	Stream string `json:"stream,omitempty"`

	// SCHEMA payload
	Schema        *jsonschema.Node `json:"schema,omitempty"`
	KeyProperties []string         `json:"key_properties,omitempty"`

	// RECORD payload
	Record map[string]any `json:"record,omitempty"`

	// STATE payload, passed through opaque
	Value json.RawMessage `json:"value,omitempty"`
}

// maxLineBytes bounds one protocol line. Records are rows, not blobs;
// anything past this is a malformed stream.
const maxLineBytes = 4 * 1024 * 1024

// Reader decodes messages from a line-delimited stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Reader{scanner: scanner}
}

// Next returns the next message, io.EOF at end of stream. Blank lines are
// skipped; a line that does not decode, or decodes without a type, is a
// fatal stream error.
func (r *Reader) Next() (*Message, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput,
				fmt.Sprintf("malformed message on line %d", r.line), err)
		}
		if msg.Type == "" {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("message on line %d has no type", r.line))
		}
		if (msg.Type == TypeSchema || msg.Type == TypeRecord) && msg.Stream == "" {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("%s message on line %d names no stream", msg.Type, r.line))
		}
		return &msg, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read stream", err)
	}
	return nil, io.EOF
}
