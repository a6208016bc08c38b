// Package mock provides a test double for the narrator.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lookout/pkg/provider/narrator"
)

// Provider is a mock implementation of narrator.Provider that records every
// spoken sentence.
type Provider struct {
	mu sync.Mutex

	// SpeakErr, if non-nil, is returned from every Speak call. The text is
	// still recorded.
	SpeakErr error

	spoken []string
}

// Speak records text and returns SpeakErr.
func (p *Provider) Speak(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spoken = append(p.spoken, text)
	return p.SpeakErr
}

// Spoken returns a copy of all recorded sentences in order. Thread-safe.
func (p *Provider) Spoken() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.spoken))
	copy(out, p.spoken)
	return out
}

// Last returns the most recently spoken sentence, or "" if none.
func (p *Provider) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.spoken) == 0 {
		return ""
	}
	return p.spoken[len(p.spoken)-1]
}

// Reset clears all recorded sentences. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spoken = nil
}

// Ensure Provider implements narrator.Provider at compile time.
var _ narrator.Provider = (*Provider)(nil)
