package orchestrator

import "github.com/teslashibe/go-spotter/pkg/analysis"

// Mode selects which analysis discipline the orchestrator runs.
type Mode string

const (
	// ModeMotion compares two frames taken half a second apart.
	ModeMotion Mode = "motion"

	// ModeLive polls single-frame object detection on an interval.
	ModeLive Mode = "live"
)

// State is everything the presentation layer needs to render the
// dashboard. It is mutated only by orchestrator operations and read
// via Snapshot.
//
// Invariants:
//   - Analyzing and Detecting are never both true.
//   - Switching modes clears LastResult, LastDetections, LastError
//     and Banner atomically with the mode change.
type State struct {
	Mode          Mode   `json:"mode"`
	SessionID     string `json:"session_id,omitempty"`
	SessionActive bool   `json:"session_active"`

	Analyzing bool `json:"analyzing"` // One-shot motion call in flight
	Detecting bool `json:"detecting"` // Live detection polling armed

	LastResult     *analysis.MotionResult `json:"last_result,omitempty"`
	LastDetections []analysis.Detection   `json:"last_detections,omitempty"`

	// Banner is the transient movement description shown after a
	// successful motion analysis; it self-clears.
	Banner string `json:"banner,omitempty"`

	// LastError is the persistent user-facing error, if any. Live
	// detection failures never land here.
	LastError string `json:"last_error,omitempty"`
}
