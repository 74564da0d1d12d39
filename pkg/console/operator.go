package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

type answer struct {
	text string
	err  error
}

// Operator answers device prompts from a terminal. Input is read by a single
// background goroutine so a prompt can be abandoned when ctx is cancelled; a
// line typed after that is handed to the next prompt.
type Operator struct {
	in      *bufio.Reader
	out     io.Writer
	start   sync.Once
	answers chan answer
}

func NewOperator(in io.Reader, out io.Writer) *Operator {
	return &Operator{in: bufio.NewReader(in), out: out, answers: make(chan answer)}
}

func (op *Operator) readLines() {
	defer close(op.answers)
	for {
		text, err := op.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && text != "") {
			op.answers <- answer{err: err}
			return
		}
		op.answers <- answer{text: strings.TrimRight(text, "\r\n")}
		if err != nil {
			return
		}
	}
}

// Prompt shows the device prompt and blocks until the operator enters a line
// or ctx is cancelled.
func (op *Operator) Prompt(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprintf(op.out, "%s\n> ", prompt); err != nil {
		return "", err
	}
	op.start.Do(func() { go op.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a, ok := <-op.answers:
		if !ok {
			return "", fmt.Errorf("reading operator input: %w", io.EOF)
		}
		if a.err != nil {
			return "", fmt.Errorf("reading operator input: %w", a.err)
		}
		return a.text, nil
	}
}
