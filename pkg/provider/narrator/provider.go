// Package narrator defines the Provider interface for speech output.
//
// Narration is best-effort and fire-and-forget: a narrator that cannot speak
// must not surface the failure to the session. Callers use [SpeakQuietly] to
// enforce that, logging but otherwise swallowing errors.
package narrator

import (
	"context"
	"log/slog"
)

// Provider is the abstraction over any text-to-speech output.
type Provider interface {
	// Speak queues text for playback. It should return quickly; it is not
	// required to block until playback has finished.
	Speak(ctx context.Context, text string) error
}

// SpeakQuietly calls p.Speak and swallows any error (or panic) after logging
// it. A nil provider is a no-op.
func SpeakQuietly(ctx context.Context, p Provider, text string) {
	if p == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("narrator: speak panicked", "panic", r)
		}
	}()
	if err := p.Speak(ctx, text); err != nil {
		slog.Warn("narrator: speak failed", "err", err)
	}
}
