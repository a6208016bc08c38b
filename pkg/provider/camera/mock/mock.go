// Package mock provides test doubles for the camera package interfaces.
//
// Use Provider to script Open outcomes and Capture to count frames and
// releases.
//
// Example:
//
//	cam := &mock.Provider{OpenErrs: []error{camera.NewError(camera.KindPermissionDenied, nil)}}
//	_, err := cam.Open(ctx, camera.Constraints{})
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/types"
)

// Provider is a mock implementation of camera.Provider.
type Provider struct {
	mu sync.Mutex

	// OpenErrs are returned by successive Open calls; once exhausted (or when
	// an entry is nil) Open succeeds and returns Capture.
	OpenErrs []error

	// Capture is returned by successful Open calls. If nil a fresh default
	// Capture is created on each call.
	Capture *Capture

	// Block, if non-nil, makes Open wait until it is closed or ctx is done.
	Block chan struct{}

	// OpenCalls records the constraints passed to every Open call.
	OpenCalls []camera.Constraints
}

// Open records the call and returns the next scripted result.
func (p *Provider) Open(ctx context.Context, c camera.Constraints) (camera.Capture, error) {
	p.mu.Lock()
	p.OpenCalls = append(p.OpenCalls, c)
	block := p.Block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.OpenErrs) > 0 {
		err := p.OpenErrs[0]
		p.OpenErrs = p.OpenErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if p.Capture == nil {
		return &Capture{}, nil
	}
	return p.Capture, nil
}

// Calls returns a copy of the recorded constraints. Thread-safe.
func (p *Provider) Calls() []camera.Constraints {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]camera.Constraints, len(p.OpenCalls))
	copy(out, p.OpenCalls)
	return out
}

// Capture is a mock implementation of camera.Capture.
type Capture struct {
	mu sync.Mutex

	// FrameErr, if non-nil, is returned from every Frame call.
	FrameErr error

	frames   int
	releases int
}

// Frame returns an empty RGBA frame and counts the call.
func (c *Capture) Frame(_ context.Context) (types.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FrameErr != nil {
		return types.Frame{}, c.FrameErr
	}
	c.frames++
	return types.Frame{Format: "rgba", Width: 640, Height: 480}, nil
}

// Release counts the call.
func (c *Capture) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releases++
	return nil
}

// Frames returns the number of frames served.
func (c *Capture) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Releases returns the number of Release calls.
func (c *Capture) Releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases
}

var (
	_ camera.Provider = (*Provider)(nil)
	_ camera.Capture  = (*Capture)(nil)
)
