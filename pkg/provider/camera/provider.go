// Package camera defines the Provider interface for video capture devices.
//
// A capture session is opened with a set of [Constraints] and yields a
// [Capture] handle. The handle serves the most recent frame on demand and must
// be released when the session ends so the device is free for the next user.
package camera

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/lookout/pkg/types"
)

// Kind classifies why a capture session could not be opened.
type Kind string

const (
	// KindPermissionDenied means the user or OS refused camera access.
	KindPermissionDenied Kind = "permission-denied"

	// KindBlocked means access is forbidden by a security policy rather than
	// by the user.
	KindBlocked Kind = "blocked"

	// KindNoDevice means no camera matching the request exists.
	KindNoDevice Kind = "no-device"

	// KindDeviceBusy means the camera is held by another application.
	KindDeviceBusy Kind = "device-busy"

	// KindUnsatisfiable means the constraints cannot be met by any device.
	KindUnsatisfiable Kind = "unsatisfiable"

	// KindInvalid means the constraints themselves are malformed.
	KindInvalid Kind = "invalid"

	// KindPlayback means the device opened but the stream never became ready.
	KindPlayback Kind = "playback"
)

// CaptureError is returned by [Provider.Open] when a session cannot be
// established.
type CaptureError struct {
	Kind Kind
	Err  error
}

// Error implements error.
func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("capture %s", e.Kind)
}

// Unwrap returns the underlying cause.
func (e *CaptureError) Unwrap() error { return e.Err }

// NewError returns a [CaptureError] of the given kind wrapping err.
func NewError(kind Kind, err error) error {
	return &CaptureError{Kind: kind, Err: err}
}

// KindOf reports the [Kind] of err if it is (or wraps) a [CaptureError].
func KindOf(err error) (Kind, bool) {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// Constraints describe the stream a caller would like.
type Constraints struct {
	// Facing is the preferred camera direction.
	Facing types.Facing

	// ExactFacing requires Facing to be honoured; when false it is a hint.
	ExactFacing bool

	// Ideal is the preferred resolution. Zero values leave it to the device.
	Ideal types.Resolution
}

// Capture is an open capture session. Implementations must be safe for
// concurrent use; Release may be called more than once.
type Capture interface {
	// Frame grabs the current frame. It may block briefly while the device
	// delivers the next image.
	Frame(ctx context.Context) (types.Frame, error)

	// Release stops all tracks and frees the device. It is idempotent.
	Release() error
}

// Provider opens capture sessions.
type Provider interface {
	// Open acquires the camera and waits until the stream is ready to serve
	// frames. Failures should be reported as [*CaptureError].
	Open(ctx context.Context, c Constraints) (Capture, error)
}
