// Package mock provides a test double for the listener.Provider interface.
//
// Transcripts are returned in order, one per Listen call. Once the queue is
// exhausted, Listen returns ListenErr (or a NoMatch RecognitionError when
// ListenErr is nil).
//
// Example:
//
//	p := &mock.Provider{Transcripts: []string{"detect objects"}}
//	text, _ := p.Listen(ctx)
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/MrWong99/lookout/pkg/provider/listener"
)

// Provider is a mock implementation of listener.Provider.
type Provider struct {
	mu sync.Mutex

	// Transcripts are handed out one per Listen call in order.
	Transcripts []string

	// ListenErr, if non-nil, is returned once Transcripts is exhausted.
	ListenErr error

	// Block, if non-nil, makes Listen wait until the channel is closed or ctx
	// is done before answering.
	Block chan struct{}

	// ListenCalls counts Listen invocations.
	ListenCalls int
}

// Listen records the call and returns the next queued transcript.
func (p *Provider) Listen(ctx context.Context) (string, error) {
	p.mu.Lock()
	p.ListenCalls++
	block := p.Block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", listener.NewError(listener.KindAborted, ctx.Err())
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Transcripts) > 0 {
		t := p.Transcripts[0]
		p.Transcripts = p.Transcripts[1:]
		return t, nil
	}
	if p.ListenErr != nil {
		return "", p.ListenErr
	}
	return "", listener.NewError(listener.KindNoMatch, errors.New("mock: no transcript queued"))
}

// Calls returns the number of Listen invocations. Thread-safe.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ListenCalls
}

// Ensure Provider implements listener.Provider at compile time.
var _ listener.Provider = (*Provider)(nil)
