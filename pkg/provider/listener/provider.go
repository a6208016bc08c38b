// Package listener defines the Provider interface for single-shot speech
// recognition.
//
// A listener wraps a speech-to-text capability (a platform recogniser, a local
// Whisper model, or a console that reads typed text) and yields exactly one
// transcript per call. It is not a streaming interface: the session
// orchestrator asks for one utterance, interprets it, and moves on.
package listener

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a recogniser could not produce a transcript.
type Kind string

const (
	// KindNotAllowed means microphone access was refused.
	KindNotAllowed Kind = "not-allowed"

	// KindNoMatch means audio was heard but nothing was recognised.
	KindNoMatch Kind = "no-match"

	// KindAborted means recognition was stopped before a result arrived.
	KindAborted Kind = "aborted"

	// KindUnavailable means the recogniser could not be started at all.
	KindUnavailable Kind = "unavailable"
)

// RecognitionError is returned by [Provider.Listen] when no transcript could
// be produced.
type RecognitionError struct {
	Kind Kind
	Err  error
}

// Error implements error.
func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognition %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("recognition %s", e.Kind)
}

// Unwrap returns the underlying cause.
func (e *RecognitionError) Unwrap() error { return e.Err }

// NewError returns a [RecognitionError] of the given kind wrapping err.
func NewError(kind Kind, err error) error {
	return &RecognitionError{Kind: kind, Err: err}
}

// KindOf reports the [Kind] of err if it is (or wraps) a [RecognitionError].
func KindOf(err error) (Kind, bool) {
	var re *RecognitionError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// Provider is the abstraction over any speech recogniser.
type Provider interface {
	// Listen blocks until the recogniser produces one final transcript, ctx is
	// cancelled, or recognition fails. Failures should be reported as
	// [*RecognitionError] so callers can map them to user-facing messages.
	Listen(ctx context.Context) (string, error)
}
