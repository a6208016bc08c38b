package session

import (
	"context"
	"errors"

	"github.com/MrWong99/lookout/internal/resilience"
	"github.com/MrWong99/lookout/pkg/provider/camera"
	"github.com/MrWong99/lookout/pkg/provider/detector"
	"github.com/MrWong99/lookout/pkg/provider/listener"
)

// Fixed sentences spoken or shown by the orchestrator.
const (
	// IdlePrompt is the status text shown while waiting for a trigger.
	IdlePrompt = "Press the button and say 'What is in front of me?'"

	// HelpMessage answers the help intent.
	HelpMessage = "You can say: what's in front, detect objects, or help."

	// Reprompt answers an unrecognised transcript.
	Reprompt = "Please say 'what's in front' or 'detect objects'."

	// AnalysisFailed is surfaced for every inference failure.
	AnalysisFailed = "Analysis failed."

	// CaptureFallback is surfaced for capture failures without a specific
	// mapping.
	CaptureFallback = "Unable to access the camera."

	// RecognitionFallback is surfaced for recognition failures without a
	// specific mapping.
	RecognitionFallback = "There was an error with speech recognition."

	// GenericFailure is surfaced for errors outside every taxonomy.
	GenericFailure = "I encountered an error processing your request."
)

// Status texts for the intermediate stages.
const (
	statusListening    = "Listening..."
	statusOpening      = "Opening camera..."
	statusCameraReady  = "Camera ready."
	statusProcessing   = "Processing..."
	statusLoadingModel = "Loading object detection model..."
	statusDetecting    = "Detecting objects..."
)

var captureMessages = map[camera.Kind]string{
	camera.KindPermissionDenied: "Permission to use the camera was denied.",
	camera.KindBlocked:          "Camera access is blocked by security settings.",
	camera.KindNoDevice:         "No suitable camera was found on this device.",
	camera.KindDeviceBusy:       "The camera is already in use by another application.",
	camera.KindUnsatisfiable:    "The requested camera constraints could not be satisfied.",
	camera.KindInvalid:          "Camera constraints were invalid.",
	camera.KindPlayback:         "Failed to start the camera preview.",
}

var recognitionMessages = map[listener.Kind]string{
	listener.KindNotAllowed:  "Microphone permission denied.",
	listener.KindUnavailable: "Unable to start listening.",
}

// Message maps a collaborator error to the sentence spoken to the user.
// Every error yields some sentence; unmapped kinds fall back to the generic
// sentence of their taxonomy.
func Message(err error) string {
	if kind, ok := camera.KindOf(err); ok {
		if msg, ok := captureMessages[kind]; ok {
			return msg
		}
		return CaptureFallback
	}
	if kind, ok := listener.KindOf(err); ok {
		if msg, ok := recognitionMessages[kind]; ok {
			return msg
		}
		return RecognitionFallback
	}
	if _, ok := detector.KindOf(err); ok || errors.Is(err, resilience.ErrCircuitOpen) {
		return AnalysisFailed
	}
	return GenericFailure
}

// errorKind returns a short label for err used as a metric attribute.
func errorKind(err error) string {
	if kind, ok := camera.KindOf(err); ok {
		return string(kind)
	}
	if kind, ok := listener.KindOf(err); ok {
		return string(kind)
	}
	if kind, ok := detector.KindOf(err); ok {
		return string(kind)
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit-open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "unknown"
}
