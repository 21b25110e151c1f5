// Package camera provides still-frame capture from local video devices.
package camera

import "errors"

// Sentinel errors for capture failures.
var (
	// ErrNotOpen is returned when capturing from a closed source.
	ErrNotOpen = errors.New("camera: device not open")

	// ErrReadFailed is returned when the device produced no frame.
	ErrReadFailed = errors.New("camera: failed to read frame")

	// ErrEmptyFrame is returned when the device produced an empty frame.
	ErrEmptyFrame = errors.New("camera: empty frame")
)

// Source produces encoded still frames from a live video resource.
// Each call reflects the device's current frame at call time.
type Source interface {
	// CaptureJPEG grabs the current frame as an encoded JPEG.
	CaptureJPEG() ([]byte, error)

	// Close releases the underlying device.
	Close() error
}
