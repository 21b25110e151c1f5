// Package analysis sends camera frames to a hosted multimodal vision
// model and returns structured results. The local code does no
// perception work itself; everything is delegated to the backend.
package analysis

import (
	"context"
	"math"
)

// MotionResult describes a moving subject observed across two frames
// taken roughly half a second apart.
type MotionResult struct {
	Subject    string  `json:"subject"`    // What is moving
	Movement   string  `json:"movement"`   // How it is moving
	Confidence float64 `json:"confidence"` // 0..1
}

// DisplayConfidence returns the confidence as a percentage in [0,100].
func (r MotionResult) DisplayConfidence() int {
	return int(math.Round(r.Confidence * 100))
}

// BoundingBox identifies an object's extent within a frame.
// All coordinates are normalized to [0,1] with min < max on each axis.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// Detection is a single labeled object located in a frame.
type Detection struct {
	Label string      `json:"label"`
	Box   BoundingBox `json:"box"`
}

// Client is the interface for vision analysis backends.
// Both calls block until the backend round trip completes or fails.
type Client interface {
	// AnalyzeMotion compares two JPEG frames and describes the motion
	// between them.
	AnalyzeMotion(ctx context.Context, frameA, frameB []byte) (*MotionResult, error)

	// DetectObjects enumerates all significant objects in one JPEG
	// frame. An empty result is valid: no objects were found.
	DetectObjects(ctx context.Context, frame []byte) ([]Detection, error)
}
