// Package detector defines the interfaces for object-detection inference.
//
// Loading a model is expensive, so it is split from inference: a [Loader]
// produces an [Engine] once, and callers cache and reuse that engine across
// sessions. Engines return labelled detections in whatever order the model
// produced them.
package detector

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/lookout/pkg/types"
)

// Kind classifies inference failures.
type Kind string

const (
	// KindNotLoaded means the model could not be loaded or is not ready.
	KindNotLoaded Kind = "not-loaded"

	// KindFrameUnreadable means the frame could not be grabbed or decoded.
	KindFrameUnreadable Kind = "frame-unreadable"

	// KindFailed covers any other inference failure.
	KindFailed Kind = "failed"
)

// InferenceError is returned by [Loader.Load] and [Engine.Detect].
type InferenceError struct {
	Kind Kind
	Err  error
}

// Error implements error.
func (e *InferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("inference %s", e.Kind)
}

// Unwrap returns the underlying cause.
func (e *InferenceError) Unwrap() error { return e.Err }

// NewError returns an [InferenceError] of the given kind wrapping err.
func NewError(kind Kind, err error) error {
	return &InferenceError{Kind: kind, Err: err}
}

// KindOf reports the [Kind] of err if it is (or wraps) an [InferenceError].
func KindOf(err error) (Kind, bool) {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie.Kind, true
	}
	return "", false
}

// Engine runs inference on single frames. Implementations must be safe for
// concurrent use.
type Engine interface {
	// Detect returns all detections found in frame, unfiltered.
	Detect(ctx context.Context, frame types.Frame) (types.DetectionSet, error)
}

// Loader creates engines. Load may be slow (model download, weight
// initialisation); callers should cache its result.
type Loader interface {
	Load(ctx context.Context) (Engine, error)
}
