package camera

import "sync"

// Mock implements Source for testing.
// All methods can be customized via function fields.
type Mock struct {
	// CaptureFunc is called when CaptureJPEG is invoked.
	// If nil, returns a tiny placeholder payload.
	CaptureFunc func() ([]byte, error)

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	mu       sync.Mutex
	captures int
	closes   int
}

// CaptureJPEG calls CaptureFunc and records the call.
func (m *Mock) CaptureJPEG() ([]byte, error) {
	m.mu.Lock()
	m.captures++
	m.mu.Unlock()

	if m.CaptureFunc != nil {
		return m.CaptureFunc()
	}
	return []byte("jpeg"), nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Captures returns how many times CaptureJPEG was called.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Closes returns how many times Close was called.
func (m *Mock) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

var _ Source = (*Mock)(nil)
