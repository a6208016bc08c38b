// Package types defines the shared types used across all Lookout packages.
//
// These types form the lingua franca between the camera, the detection engine,
// the sampler and the session orchestrator. They are intentionally minimal:
// each package defines its own domain types, but cross-cutting data structures
// live here to avoid circular imports.
package types

import (
	"fmt"
	"time"
)

// Detection is one labelled, confidence-scored object identified in a frame.
// Detections are produced by a detection engine and are never mutated after
// creation.
type Detection struct {
	// Label is the class name reported by the model (e.g., "cat", "chair").
	Label string `yaml:"label"`

	// Confidence is the model score in [0, 1].
	Confidence float64 `yaml:"confidence"`
}

// DetectionSet is an ordered sequence of detections in the order the engine
// returned them. Consumers never re-sort a DetectionSet.
type DetectionSet []Detection

// Above returns the detections whose confidence is strictly greater than min,
// preserving engine order. The receiver is not modified.
func (s DetectionSet) Above(min float64) DetectionSet {
	out := make(DetectionSet, 0, len(s))
	for _, d := range s {
		if d.Confidence > min {
			out = append(out, d)
		}
	}
	return out
}

// Frame is a single still image grabbed from a capture session.
type Frame struct {
	// Data holds the raw pixel bytes or an encoded image, depending on Format.
	Data []byte

	// Format names the encoding of Data (e.g., "rgba", "jpeg", "png").
	Format string

	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// Timestamp marks when the frame was grabbed, relative to capture start.
	Timestamp time.Duration
}

// Facing selects which physical camera to prefer on devices with several.
type Facing string

const (
	// FacingEnvironment is the rear, world-facing camera.
	FacingEnvironment Facing = "environment"

	// FacingUser is the front, selfie camera.
	FacingUser Facing = "user"
)

// IsValid reports whether f is a recognised facing mode.
func (f Facing) IsValid() bool {
	return f == FacingEnvironment || f == FacingUser
}

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// String returns the resolution as "WxH".
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
