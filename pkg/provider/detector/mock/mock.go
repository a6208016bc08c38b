// Package mock provides test doubles for the detector package interfaces.
//
// Engine replays a scripted sequence of detection results, one per Detect
// call; the last entry repeats once the script is exhausted.
//
// Example:
//
//	eng := &mock.Engine{Results: []types.DetectionSet{nil, {{Label: "cat", Confidence: 0.9}}}}
//	loader := &mock.Loader{Engine: eng}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/types"
)

// Engine is a mock implementation of detector.Engine.
type Engine struct {
	mu sync.Mutex

	// Results are returned by successive Detect calls. The final entry is
	// repeated for any further calls. A nil Results yields empty sets.
	Results []types.DetectionSet

	// Errs, when the entry at the call index is non-nil, makes that Detect
	// call fail instead of returning a result.
	Errs []error

	// DetectCalls records the frames passed to Detect.
	DetectCalls []types.Frame
}

// Detect records the call and returns the scripted result.
func (e *Engine) Detect(_ context.Context, frame types.Frame) (types.DetectionSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := len(e.DetectCalls)
	e.DetectCalls = append(e.DetectCalls, frame)

	if i < len(e.Errs) && e.Errs[i] != nil {
		return nil, e.Errs[i]
	}
	if len(e.Results) == 0 {
		return types.DetectionSet{}, nil
	}
	if i >= len(e.Results) {
		i = len(e.Results) - 1
	}
	out := make(types.DetectionSet, len(e.Results[i]))
	copy(out, e.Results[i])
	return out, nil
}

// Calls returns the number of Detect invocations. Thread-safe.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.DetectCalls)
}

// Loader is a mock implementation of detector.Loader.
type Loader struct {
	mu sync.Mutex

	// Engine is returned by successful Load calls.
	Engine detector.Engine

	// LoadErrs are returned by successive Load calls until exhausted.
	LoadErrs []error

	// LoadCalls counts Load invocations.
	LoadCalls int
}

// Load records the call and returns Engine or the next scripted error.
func (l *Loader) Load(_ context.Context) (detector.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.LoadCalls++
	if len(l.LoadErrs) > 0 {
		err := l.LoadErrs[0]
		l.LoadErrs = l.LoadErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return l.Engine, nil
}

// Calls returns the number of Load invocations. Thread-safe.
func (l *Loader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.LoadCalls
}

var (
	_ detector.Engine = (*Engine)(nil)
	_ detector.Loader = (*Loader)(nil)
)
