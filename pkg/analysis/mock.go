package analysis

import (
	"context"
	"sync"
	"time"
)

// Mock implements Client for testing.
// All methods can be customized via function fields.
type Mock struct {
	// AnalyzeMotionFunc is called when AnalyzeMotion is invoked.
	// If nil, returns a fixed placeholder result.
	AnalyzeMotionFunc func(ctx context.Context, frameA, frameB []byte) (*MotionResult, error)

	// DetectObjectsFunc is called when DetectObjects is invoked.
	// If nil, returns an empty detection set.
	DetectObjectsFunc func(ctx context.Context, frame []byte) ([]Detection, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Time   time.Time
}

// AnalyzeMotion calls AnalyzeMotionFunc and records the call.
func (m *Mock) AnalyzeMotion(ctx context.Context, frameA, frameB []byte) (*MotionResult, error) {
	m.recordCall("AnalyzeMotion")
	if m.AnalyzeMotionFunc != nil {
		return m.AnalyzeMotionFunc(ctx, frameA, frameB)
	}
	return &MotionResult{Subject: "subject", Movement: "still", Confidence: 0.5}, nil
}

// DetectObjects calls DetectObjectsFunc and records the call.
func (m *Mock) DetectObjects(ctx context.Context, frame []byte) ([]Detection, error) {
	m.recordCall("DetectObjects")
	if m.DetectObjectsFunc != nil {
		return m.DetectObjectsFunc(ctx, frame)
	}
	return []Detection{}, nil
}

func (m *Mock) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
}

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of calls to the named method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

var _ Client = (*Mock)(nil)
