package orchestrator

import "sync/atomic"

// pollTask is a cancellable handle for the repeating detection loop.
// Cancellation is explicit so teardown can prove no tick outlives its
// owning session.
type pollTask struct {
	stop chan struct{} // Closed exactly once by cancel
	done chan struct{} // Closed by runPoll on exit

	// busy guards against pipelined cycles: a tick is skipped while
	// the previous cycle is still awaiting the backend.
	busy atomic.Bool

	cancelled atomic.Bool
}

func newPollTask() *pollTask {
	return &pollTask{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// cancel signals the loop to exit. Safe to call more than once.
func (t *pollTask) cancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		close(t.stop)
	}
}
