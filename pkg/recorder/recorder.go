package recorder

import (
	"context"
	"errors"
	"fmt"
	"github.com/dancavallaro/gesture-recorder/pkg/serialio"
	"log"
	"strings"
	"time"
)

const (
	gestureMarker  = "Now recording gesture"
	dataMarker     = "proximity"
	promptMarker   = "Press ~ to "
	finishedMarker = "Finished current recording."
)

type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// names come from the device and must stay a single file in the output directory
var filenameReplacer = strings.NewReplacer("/", "_", "\\", "_")

// ErrLink marks failures writing to the device. They end Run like a read failure.
var ErrLink = errors.New("sending to device")

type Source interface {
	Poll() serialio.Event
}

type Link interface {
	Send(text string) error
}

// Operator answers device prompts. Prompt must return ctx.Err() once ctx is
// cancelled, even if no answer has arrived.
type Operator interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

type Store interface {
	Write(filename string, rows [][]string) (string, error)
}

// Session describes a recording that has been written out.
type Session struct {
	Gesture  string
	Filename string
	Path     string
	Rows     int
}

type Notifier interface {
	SessionSaved(s Session)
}

type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

type Config struct {
	Link     Link
	Operator Operator
	Store    Store
	Notifier Notifier
	Logger   Logger

	// PollInterval is how long Run sleeps after a poll that returned nothing.
	PollInterval time.Duration
}

// Recorder splits the device's output into one file per recorded gesture.
type Recorder struct {
	cfg Config

	state    State
	gesture  string
	filename string
	rows     [][]string
	counter  int
}

func New(cfg Config) *Recorder {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Recorder{cfg: cfg, counter: 1}
}

func (r *Recorder) State() State {
	return r.state
}

func (r *Recorder) Filename() string {
	return r.filename
}

func (r *Recorder) Counter() int {
	return r.counter
}

func (r *Recorder) Rows() [][]string {
	rows := make([][]string, len(r.rows))
	for i, row := range r.rows {
		rows[i] = append([]string(nil), row...)
	}
	return rows
}

func (r *Recorder) HandleLine(ctx context.Context, line string) error {
	switch r.state {
	case Idle:
		switch {
		case strings.Contains(line, gestureMarker):
			r.stage(line)
		case strings.Contains(line, dataMarker):
			if r.filename == "" {
				r.gesture = "unnamed"
				r.filename = r.sessionFilename()
				r.cfg.Logger.Printf("Data started without a gesture name, using %s\n", r.filename)
			}
			r.rows = [][]string{strings.Split(line, ",")}
			r.state = Recording
		case strings.Contains(line, promptMarker):
			return r.forwardOperatorInput(ctx, line)
		}
	case Recording:
		if line == finishedMarker {
			return r.finish()
		}
		r.rows = append(r.rows, strings.Split(line, ","))
	}
	return nil
}

func (r *Recorder) stage(line string) {
	name := ""
	if start := strings.Index(line, "["); start >= 0 {
		if end := strings.Index(line[start+1:], "]"); end >= 0 {
			name = line[start+1 : start+1+end]
		}
	}
	if name == "" {
		r.cfg.Logger.Printf("No gesture name in %q\n", line)
	}
	r.gesture = name
	r.filename = r.sessionFilename()
}

func (r *Recorder) sessionFilename() string {
	return fmt.Sprintf("%s_%d.csv", filenameReplacer.Replace(r.gesture), r.counter)
}

func (r *Recorder) forwardOperatorInput(ctx context.Context, prompt string) error {
	if r.cfg.Operator == nil || r.cfg.Link == nil {
		return nil
	}
	text, err := r.cfg.Operator.Prompt(ctx, prompt)
	if err != nil {
		return err
	}
	if err := r.cfg.Link.Send(text); err != nil {
		return fmt.Errorf("%w: %w", ErrLink, err)
	}
	return nil
}

// finish writes the session out and resets for the next one. The reset happens
// even when the write fails so one bad file does not wedge the recorder.
func (r *Recorder) finish() error {
	session := Session{Gesture: r.gesture, Filename: r.filename, Rows: len(r.rows)}
	path, err := r.cfg.Store.Write(r.filename, r.rows)

	r.rows = nil
	r.filename = ""
	r.gesture = ""
	r.counter++
	r.state = Idle

	if err != nil {
		return fmt.Errorf("saving %s: %w", session.Filename, err)
	}
	session.Path = path
	r.cfg.Logger.Printf("Saved %d rows to %s\n", session.Rows, path)
	if r.cfg.Notifier != nil {
		r.cfg.Notifier.SessionSaved(session)
	}
	return nil
}

// Handle applies one poll result. done reports that the stream is finished;
// err is set when it ended because of a transport failure. An interrupted
// operator prompt ends the stream without an error.
func (r *Recorder) Handle(ctx context.Context, ev serialio.Event) (done bool, err error) {
	switch ev.Kind {
	case serialio.Line:
		r.cfg.Logger.Printf("Listened message: %s\n", ev.Line)
		if err := r.HandleLine(ctx, ev.Line); err != nil {
			if errors.Is(err, ErrLink) {
				return true, err
			}
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return true, nil
			}
			r.cfg.Logger.Println(err)
		}
	case serialio.Undecodable:
		r.cfg.Logger.Printf("Dropping undecodable line %q\n", ev.Raw)
	case serialio.TransportError:
		return true, ev.Err
	case serialio.EndOfStream:
		return true, nil
	}
	return false, nil
}

// Run polls src until the stream ends, a transport error occurs or ctx is
// cancelled. A session still in progress when Run returns is discarded.
func (r *Recorder) Run(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			r.discard("interrupted")
			return nil
		default:
		}

		ev := src.Poll()
		done, err := r.Handle(ctx, ev)
		if done {
			if ctx.Err() != nil {
				r.discard("interrupted")
				return nil
			}
			r.discard("stream closed")
			return err
		}
		if ev.Kind == serialio.NoData && r.cfg.PollInterval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.cfg.PollInterval):
			}
		}
	}
}

func (r *Recorder) discard(reason string) {
	if r.state == Recording {
		r.cfg.Logger.Printf("%s while recording %s, discarding %d rows\n", reason, r.filename, len(r.rows))
	}
}
