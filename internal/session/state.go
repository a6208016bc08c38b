package session

// State is the orchestrator's position in the listen → capture → analyze →
// report cycle. The cycle starts and ends at [Idle].
type State int

const (
	// Idle waits for a trigger.
	Idle State = iota

	// Listening waits for one transcript from the speech recogniser.
	Listening

	// Capturing acquires the camera.
	Capturing

	// Analyzing runs warm-up sampling against the open capture.
	Analyzing

	// Reporting narrates the result and dwells before resetting.
	Reporting
)

// String returns the lowercase state name used in logs, metrics and status
// payloads.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Capturing:
		return "capturing"
	case Analyzing:
		return "analyzing"
	case Reporting:
		return "reporting"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so states serialise by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is what the user-facing status surface shows.
type Status struct {
	// State is the current orchestrator state.
	State State `json:"state"`

	// Text is the human-readable status line.
	Text string `json:"text"`

	// Busy is true while the camera or detector is working.
	Busy bool `json:"busy"`

	// SessionID identifies the in-flight session; empty when idle.
	SessionID string `json:"session_id,omitempty"`
}
