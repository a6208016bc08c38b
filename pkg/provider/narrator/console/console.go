// Package console implements narrator.Provider by printing sentences to an
// io.Writer, prefixed so they stand out from log output.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/MrWong99/lookout/pkg/provider/narrator"
)

// Narrator writes each sentence on its own line.
type Narrator struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// New returns a Narrator writing to w. An empty prefix defaults to "🔊 ".
func New(w io.Writer, prefix string) *Narrator {
	if prefix == "" {
		prefix = "🔊 "
	}
	return &Narrator{w: w, prefix: prefix}
}

// Speak writes text to the underlying writer.
func (n *Narrator) Speak(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintf(n.w, "%s%s\n", n.prefix, text); err != nil {
		return fmt.Errorf("console narrator: %w", err)
	}
	return nil
}

var _ narrator.Provider = (*Narrator)(nil)
