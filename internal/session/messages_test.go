package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrWong99/lookout/internal/resilience"
	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/provider/listener"
)

func TestMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"permission denied", camera.NewError(camera.KindPermissionDenied, nil), "Permission to use the camera was denied."},
		{"blocked", camera.NewError(camera.KindBlocked, nil), "Camera access is blocked by security settings."},
		{"no device", camera.NewError(camera.KindNoDevice, nil), "No suitable camera was found on this device."},
		{"device busy", camera.NewError(camera.KindDeviceBusy, nil), "The camera is already in use by another application."},
		{"unsatisfiable", camera.NewError(camera.KindUnsatisfiable, nil), "The requested camera constraints could not be satisfied."},
		{"invalid", camera.NewError(camera.KindInvalid, nil), "Camera constraints were invalid."},
		{"playback", camera.NewError(camera.KindPlayback, nil), "Failed to start the camera preview."},
		{"unknown camera kind", camera.NewError(camera.Kind("overheated"), nil), CaptureFallback},
		{"wrapped camera", fmt.Errorf("session: open camera: %w", camera.NewError(camera.KindNoDevice, nil)), "No suitable camera was found on this device."},
		{"mic denied", listener.NewError(listener.KindNotAllowed, nil), "Microphone permission denied."},
		{"recogniser unavailable", listener.NewError(listener.KindUnavailable, nil), "Unable to start listening."},
		{"no match", listener.NewError(listener.KindNoMatch, nil), RecognitionFallback},
		{"aborted", listener.NewError(listener.KindAborted, nil), RecognitionFallback},
		{"not loaded", detector.NewError(detector.KindNotLoaded, nil), AnalysisFailed},
		{"frame unreadable", detector.NewError(detector.KindFrameUnreadable, nil), AnalysisFailed},
		{"circuit open", fmt.Errorf("load: %w", resilience.ErrCircuitOpen), AnalysisFailed},
		{"untyped", errors.New("disk full"), GenericFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Message(tc.err); got != tc.want {
				t.Errorf("Message(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{camera.NewError(camera.KindDeviceBusy, nil), "device-busy"},
		{listener.NewError(listener.KindNoMatch, nil), "no-match"},
		{detector.NewError(detector.KindFailed, nil), "failed"},
		{resilience.ErrCircuitOpen, "circuit-open"},
		{fmt.Errorf("open: %w", context.DeadlineExceeded), "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("other"), "unknown"},
	}
	for _, tc := range tests {
		if got := errorKind(tc.err); got != tc.want {
			t.Errorf("errorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	want := map[State]string{
		Idle:      "idle",
		Listening: "listening",
		Capturing: "capturing",
		Analyzing: "analyzing",
		Reporting: "reporting",
		State(42): "unknown",
	}
	for s, name := range want {
		if got := s.String(); got != name {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, name)
		}
		text, err := s.MarshalText()
		if err != nil || string(text) != name {
			t.Errorf("State(%d).MarshalText() = %q, %v", int(s), text, err)
		}
	}
}
