// Package still implements camera.Provider on top of an image file.
//
// Every frame served is the same still image. It is useful for development
// and demos on machines without a camera: point it at a photo and the rest of
// the pipeline behaves as if a device were pointed at that scene.
package still

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/types"
)

// Provider opens a capture session over the image at Path.
type Provider struct {
	path   string
	facing types.Facing

	mu   sync.Mutex
	busy bool
}

// New returns a Provider serving the image at path. facing is the direction
// this "device" pretends to point; an exact request for a different facing
// fails with [camera.KindUnsatisfiable].
func New(path string, facing types.Facing) (*Provider, error) {
	if path == "" {
		return nil, errors.New("still: image path must not be empty")
	}
	if facing == "" {
		facing = types.FacingEnvironment
	}
	return &Provider{path: path, facing: facing}, nil
}

// Open reads and decodes the image. Only one capture may be open at a time;
// a second Open before Release fails with [camera.KindDeviceBusy].
func (p *Provider) Open(ctx context.Context, c camera.Constraints) (camera.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Facing != "" && !c.Facing.IsValid() {
		return nil, camera.NewError(camera.KindInvalid, fmt.Errorf("still: unknown facing %q", c.Facing))
	}
	if c.ExactFacing && c.Facing != "" && c.Facing != p.facing {
		return nil, camera.NewError(camera.KindUnsatisfiable,
			fmt.Errorf("still: device faces %s, %s required", p.facing, c.Facing))
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return nil, camera.NewError(camera.KindDeviceBusy, errors.New("still: capture already open"))
	}
	p.busy = true
	p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		p.release()
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, camera.NewError(camera.KindNoDevice, err)
		case errors.Is(err, fs.ErrPermission):
			return nil, camera.NewError(camera.KindPermissionDenied, err)
		default:
			return nil, camera.NewError(camera.KindDeviceBusy, err)
		}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		p.release()
		return nil, camera.NewError(camera.KindPlayback, fmt.Errorf("still: decode %q: %w", p.path, err))
	}

	return &capture{
		owner:  p,
		data:   data,
		format: format,
		width:  cfg.Width,
		height: cfg.Height,
		start:  time.Now(),
	}, nil
}

func (p *Provider) release() {
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}

type capture struct {
	owner  *Provider
	data   []byte
	format string
	width  int
	height int
	start  time.Time

	mu       sync.Mutex
	released bool
}

func (c *capture) Frame(ctx context.Context) (types.Frame, error) {
	if err := ctx.Err(); err != nil {
		return types.Frame{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return types.Frame{}, errors.New("still: capture released")
	}
	return types.Frame{
		Data:      c.data,
		Format:    c.format,
		Width:     c.width,
		Height:    c.height,
		Timestamp: time.Since(c.start),
	}, nil
}

func (c *capture) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	c.owner.release()
	return nil
}

var _ camera.Provider = (*Provider)(nil)
