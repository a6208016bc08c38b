// Package console implements listener.Provider by reading typed utterances
// line by line from an io.Reader (usually stdin).
//
// It stands in for a platform speech recogniser during development: whatever
// the user types is treated as the recognised transcript.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/MrWong99/lookout/pkg/provider/listener"
)

// Listener reads one line per Listen call.
type Listener struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	prompt  io.Writer
	lines   chan lineResult

	eofOnce sync.Once
	eof     chan struct{}
}

type lineResult struct {
	text string
	err  error
}

// Option configures a [Listener].
type Option func(*Listener)

// WithPrompt writes a "> " prompt to w before every read.
func WithPrompt(w io.Writer) Option {
	return func(l *Listener) { l.prompt = w }
}

// New returns a Listener reading from r.
func New(r io.Reader, opts ...Option) *Listener {
	l := &Listener{scanner: bufio.NewScanner(r), eof: make(chan struct{})}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Listen blocks until a line is read or ctx is cancelled. An empty line is
// reported as a NoMatch recognition error; EOF as Aborted.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.prompt != nil {
		fmt.Fprint(l.prompt, "> ")
	}

	// A pending read from a previous cancelled call is reused, so a line typed
	// after cancellation is not lost.
	if l.lines == nil {
		l.lines = make(chan lineResult, 1)
		go l.read(l.lines)
	}

	select {
	case res := <-l.lines:
		l.lines = nil
		if res.err != nil {
			return "", res.err
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			return "", listener.NewError(listener.KindNoMatch, errors.New("console: empty input"))
		}
		return text, nil
	case <-ctx.Done():
		return "", listener.NewError(listener.KindAborted, ctx.Err())
	}
}

// Closed is closed once the input reached EOF or failed. Every later Listen
// call returns an Aborted error.
func (l *Listener) Closed() <-chan struct{} { return l.eof }

func (l *Listener) read(out chan<- lineResult) {
	if l.scanner.Scan() {
		out <- lineResult{text: l.scanner.Text()}
		return
	}
	err := l.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	l.eofOnce.Do(func() { close(l.eof) })
	out <- lineResult{err: listener.NewError(listener.KindAborted, err)}
}

var _ listener.Provider = (*Listener)(nil)
