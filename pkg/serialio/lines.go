package serialio

import (
	"bytes"
	"errors"
	"io"
	"unicode/utf8"
)

type EventKind int

const (
	NoData EventKind = iota
	Line
	Undecodable
	TransportError
	EndOfStream
)

func (k EventKind) String() string {
	switch k {
	case NoData:
		return "no data"
	case Line:
		return "line"
	case Undecodable:
		return "undecodable"
	case TransportError:
		return "transport error"
	case EndOfStream:
		return "end of stream"
	}
	return "unknown"
}

// Event is the result of a single poll of the device.
type Event struct {
	Kind EventKind
	Line string
	Raw  []byte
	Err  error
}

const readChunk = 256

// LineReader turns a byte stream into newline-delimited text lines. Poll never
// blocks longer than one Read on the underlying stream.
type LineReader struct {
	rw      io.ReadWriter
	pending []byte
	buff    []byte
	eof     bool
}

func NewLineReader(rw io.ReadWriter) *LineReader {
	return &LineReader{rw: rw, buff: make([]byte, readChunk)}
}

func (lr *LineReader) Poll() Event {
	if ev, ok := lr.nextBuffered(); ok {
		return ev
	}
	if lr.eof {
		return Event{Kind: EndOfStream}
	}

	n, err := lr.rw.Read(lr.buff)
	lr.pending = append(lr.pending, lr.buff[:n]...)
	if errors.Is(err, io.EOF) {
		lr.eof = true
	} else if err != nil {
		return Event{Kind: TransportError, Err: err}
	}

	if ev, ok := lr.nextBuffered(); ok {
		return ev
	}
	if lr.eof {
		return Event{Kind: EndOfStream}
	}
	return Event{Kind: NoData}
}

// nextBuffered pops the next non-empty line out of the pending bytes. Once the
// stream has ended, a trailing line without a terminator is returned as well.
func (lr *LineReader) nextBuffered() (Event, bool) {
	for {
		i := bytes.IndexByte(lr.pending, '\n')
		var raw []byte
		switch {
		case i >= 0:
			raw = lr.pending[:i]
			lr.pending = lr.pending[i+1:]
		case lr.eof && len(lr.pending) > 0:
			raw = lr.pending
			lr.pending = nil
		default:
			return Event{}, false
		}

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		if !utf8.Valid(raw) {
			return Event{Kind: Undecodable, Raw: append([]byte(nil), raw...)}, true
		}
		return Event{Kind: Line, Line: string(raw)}, true
	}
}

func (lr *LineReader) Send(text string) error {
	_, err := io.WriteString(lr.rw, text)
	return err
}
