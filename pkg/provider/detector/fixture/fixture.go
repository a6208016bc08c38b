// Package fixture implements a detector.Loader that replays detections
// described in a YAML file instead of running a model.
//
// The file lists one or more frames worth of detections; each Detect call
// returns the next entry, cycling back to the start when the list is
// exhausted:
//
//	frames:
//	  - []
//	  - - {label: cat, confidence: 0.81}
//	    - {label: chair, confidence: 0.55}
//
// The fixture engine is deterministic, which makes it the engine of choice
// for demos and for exercising the full session loop end to end.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/types"
)

// document is the on-disk layout.
type document struct {
	Frames []types.DetectionSet `yaml:"frames"`
}

// Loader reads the fixture file on Load.
type Loader struct {
	path string
}

// New returns a Loader for the fixture file at path.
func New(path string) *Loader {
	return &Loader{path: path}
}

// Load parses the fixture file and returns an engine replaying it.
func (l *Loader) Load(ctx context.Context) (detector.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, detector.NewError(detector.KindNotLoaded, fmt.Errorf("fixture: open %q: %w", l.path, err))
	}
	defer f.Close()

	eng, err := Parse(f)
	if err != nil {
		return nil, detector.NewError(detector.KindNotLoaded, fmt.Errorf("fixture: parse %q: %w", l.path, err))
	}
	return eng, nil
}

// Parse decodes a fixture document from r.
func Parse(r io.Reader) (*Engine, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(doc.Frames) == 0 {
		return nil, errors.New("no frames defined")
	}
	for i, set := range doc.Frames {
		for j, d := range set {
			if d.Confidence < 0 || d.Confidence > 1 {
				return nil, fmt.Errorf("frames[%d][%d]: confidence %v out of range [0,1]", i, j, d.Confidence)
			}
		}
	}
	return &Engine{frames: doc.Frames}, nil
}

// Engine replays parsed frames in order.
type Engine struct {
	mu     sync.Mutex
	frames []types.DetectionSet
	next   int
}

// Detect returns the next scripted detection set. A frame without any data
// and without dimensions is rejected as unreadable.
func (e *Engine) Detect(ctx context.Context, frame types.Frame) (types.DetectionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(frame.Data) == 0 && frame.Width == 0 && frame.Height == 0 {
		return nil, detector.NewError(detector.KindFrameUnreadable, errors.New("fixture: empty frame"))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	set := e.frames[e.next]
	e.next = (e.next + 1) % len(e.frames)

	out := make(types.DetectionSet, len(set))
	copy(out, set)
	return out, nil
}

var (
	_ detector.Loader = (*Loader)(nil)
	_ detector.Engine = (*Engine)(nil)
)
