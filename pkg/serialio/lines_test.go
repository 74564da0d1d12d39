package serialio

import (
	"bytes"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

// chunkedDevice returns one scripted chunk per Read, then io.EOF.
type chunkedDevice struct {
	chunks  [][]byte
	err     error
	written bytes.Buffer
}

func (d *chunkedDevice) Read(p []byte) (int, error) {
	if len(d.chunks) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		return 0, io.EOF
	}
	n := copy(p, d.chunks[0])
	d.chunks[0] = d.chunks[0][n:]
	if len(d.chunks[0]) == 0 {
		d.chunks = d.chunks[1:]
	}
	return n, nil
}

func (d *chunkedDevice) Write(p []byte) (int, error) {
	return d.written.Write(p)
}

func drain(lr *LineReader) []Event {
	var events []Event
	for {
		ev := lr.Poll()
		events = append(events, ev)
		if ev.Kind == EndOfStream || ev.Kind == TransportError {
			return events
		}
	}
}

func lines(events []Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Kind == Line {
			out = append(out, ev.Line)
		}
	}
	return out
}

func TestSplitsLinesAcrossChunks(t *testing.T) {
	dev := &chunkedDevice{chunks: [][]byte{
		[]byte("Now recording ges"),
		[]byte("ture [wave]\r\nproximity,10,20\r\n5,6"),
		[]byte(",7\r\n"),
	}}

	events := drain(NewLineReader(dev))

	assert.Equal(t, []string{"Now recording gesture [wave]", "proximity,10,20", "5,6,7"}, lines(events))
	assert.Equal(t, EndOfStream, events[len(events)-1].Kind)
}

func TestPartialChunkIsNoData(t *testing.T) {
	dev := &chunkedDevice{chunks: [][]byte{[]byte("half a li"), []byte("ne\n")}}
	lr := NewLineReader(dev)

	assert.Equal(t, NoData, lr.Poll().Kind)
	ev := lr.Poll()
	assert.Equal(t, Line, ev.Kind)
	assert.Equal(t, "half a line", ev.Line)
}

func TestSkipsBlankLinesAndTrimsWhitespace(t *testing.T) {
	dev := &chunkedDevice{chunks: [][]byte{[]byte("\n\r\n   \n  Finished current recording.  \n")}}

	events := drain(NewLineReader(dev))

	assert.Equal(t, []string{"Finished current recording."}, lines(events))
}

func TestInvalidUTF8IsUndecodable(t *testing.T) {
	dev := &chunkedDevice{chunks: [][]byte{[]byte("ok\n\xff\xfe,1\nafter\n")}}

	events := drain(NewLineReader(dev))

	require.Len(t, events, 4)
	assert.Equal(t, Line, events[0].Kind)
	assert.Equal(t, Undecodable, events[1].Kind)
	assert.Equal(t, []byte("\xff\xfe,1"), events[1].Raw)
	assert.Equal(t, Line, events[2].Kind)
	assert.Equal(t, "after", events[2].Line)
	assert.Equal(t, EndOfStream, events[3].Kind)
}

func TestTrailingLineFlushedAtEndOfStream(t *testing.T) {
	dev := &chunkedDevice{chunks: [][]byte{[]byte("a\nno newline")}}
	lr := NewLineReader(dev)

	events := drain(lr)

	assert.Equal(t, []string{"a", "no newline"}, lines(events))
	assert.Equal(t, EndOfStream, lr.Poll().Kind)
}

func TestReadErrorIsTransportError(t *testing.T) {
	boom := errors.New("device unplugged")
	dev := &chunkedDevice{chunks: [][]byte{[]byte("a\n")}, err: boom}

	events := drain(NewLineReader(dev))

	last := events[len(events)-1]
	assert.Equal(t, TransportError, last.Kind)
	assert.ErrorIs(t, last.Err, boom)
	assert.Equal(t, []string{"a"}, lines(events))
}

func TestSendWritesVerbatim(t *testing.T) {
	dev := &chunkedDevice{}
	lr := NewLineReader(dev)

	require.NoError(t, lr.Send("~ go"))

	assert.Equal(t, "~ go", dev.written.String())
}

func TestOpenRequiresDevice(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, ErrDeviceRequired)
}

func TestOpenErrorUnwraps(t *testing.T) {
	inner := errors.New("no such file")
	err := error(&OpenError{Device: "/dev/ttyUSB9", Err: inner})

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "opening /dev/ttyUSB9: no such file", err.Error())
}

func TestPortInfoString(t *testing.T) {
	assert.Equal(t, "/dev/ttyS0", PortInfo{Name: "/dev/ttyS0"}.String())
	assert.Equal(t, "/dev/ttyUSB0 (usb 10c4:ea60 serial 0001)",
		PortInfo{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60", SerialNumber: "0001"}.String())
}
