// Package orchestrator coordinates frame capture and backend analysis
// under two timing disciplines: one-shot motion comparison and
// repeating live detection.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-spotter/internal/log"
	"github.com/teslashibe/go-spotter/pkg/analysis"
	"github.com/teslashibe/go-spotter/pkg/camera"
)

// Sentinel errors for orchestrator operations.
var (
	// ErrNoSession is returned when an operation needs an active camera session.
	ErrNoSession = errors.New("orchestrator: no active camera session")

	// ErrBusy is returned when a one-shot analysis is already in flight.
	ErrBusy = errors.New("orchestrator: analysis already in flight")

	// ErrWrongMode is returned when an operation does not match the current mode.
	ErrWrongMode = errors.New("orchestrator: operation not available in current mode")
)

// SourceOpener requests a new camera session from the environment.
type SourceOpener func() (camera.Source, error)

// Config holds the orchestrator's timing constants.
type Config struct {
	// MotionDelay is the real-time gap between the two motion frames,
	// letting enough motion accumulate between samples.
	MotionDelay time.Duration

	// BannerTTL is how long the transient movement banner stays up.
	BannerTTL time.Duration

	// PollInterval is the live detection cycle period.
	PollInterval time.Duration

	// RequestTimeout bounds each backend round trip.
	RequestTimeout time.Duration
}

// DefaultConfig returns the production timing constants.
func DefaultConfig() Config {
	return Config{
		MotionDelay:    500 * time.Millisecond,
		BannerTTL:      5 * time.Second,
		PollInterval:   3 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// Orchestrator owns the camera session and drives the analysis
// backend. All state transitions go through its methods; the
// presentation layer only reads snapshots.
type Orchestrator struct {
	cfg    Config
	open   SourceOpener
	client analysis.Client

	// Visible reports whether any viewer is currently attached.
	// Live detection cycles are skipped while it returns false, so a
	// backgrounded dashboard does not burn backend quota. Nil means
	// always visible. Set once during wiring, before use.
	Visible func() bool

	// OnChange is called with a state snapshot after every
	// transition. Set once during wiring, before use.
	OnChange func(State)

	mu     sync.Mutex
	state  State
	source camera.Source

	// epoch increments on every session start/stop and mode switch.
	// In-flight work compares its captured epoch before touching
	// state, so nothing mutates after teardown.
	epoch uint64

	poll   *pollTask
	banner *time.Timer
}

// New creates an orchestrator in motion mode with no active session.
func New(cfg Config, open SourceOpener, client analysis.Client) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		open:   open,
		client: client,
		state:  State{Mode: ModeMotion},
	}
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// StartSession opens a camera session. Idempotent: a second start
// while active is a no-op and never opens a duplicate device. On
// success all result and error state is cleared.
func (o *Orchestrator) StartSession() error {
	o.mu.Lock()
	if o.state.SessionActive {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	src, err := o.open()

	o.mu.Lock()
	if o.state.SessionActive {
		// A concurrent start won while the device was opening.
		o.mu.Unlock()
		if err == nil {
			src.Close()
		}
		return nil
	}
	if err != nil {
		o.state.LastError = err.Error()
		st := o.snapshotLocked()
		o.mu.Unlock()
		o.emit(st)
		return err
	}

	o.epoch++
	o.disarmTimersLocked()
	o.source = src
	o.state = State{
		Mode:          o.state.Mode,
		SessionID:     uuid.NewString(),
		SessionActive: true,
	}
	st := o.snapshotLocked()
	o.mu.Unlock()

	log.Info("camera session started", "session_id", st.SessionID)
	o.emit(st)
	return nil
}

// StopSession cancels any polling, releases the camera, and clears
// all transient state. Safe to call when no session is active.
func (o *Orchestrator) StopSession() error {
	o.mu.Lock()
	if !o.state.SessionActive && o.source == nil {
		o.mu.Unlock()
		return nil
	}

	o.epoch++
	o.disarmTimersLocked()
	src := o.source
	o.source = nil
	sid := o.state.SessionID
	o.state = State{Mode: o.state.Mode}
	st := o.snapshotLocked()
	o.mu.Unlock()

	var err error
	if src != nil {
		err = src.Close()
	}
	log.Info("camera session stopped", "session_id", sid)
	o.emit(st)
	return err
}

// Close tears the orchestrator down. Equivalent to StopSession.
func (o *Orchestrator) Close() error {
	return o.StopSession()
}

// SetMode switches between motion and live detection. The switch
// clears results, detections, errors and the banner atomically, and
// disarms any timers belonging to the previous mode.
func (o *Orchestrator) SetMode(m Mode) {
	o.mu.Lock()
	if o.state.Mode == m {
		o.mu.Unlock()
		return
	}

	o.epoch++
	o.disarmTimersLocked()
	o.state.Mode = m
	o.state.Analyzing = false
	o.state.Detecting = false
	o.state.LastResult = nil
	o.state.LastDetections = nil
	o.state.LastError = ""
	o.state.Banner = ""
	st := o.snapshotLocked()
	o.mu.Unlock()

	o.emit(st)
}

// CaptureFrame grabs a single preview frame from the active session.
func (o *Orchestrator) CaptureFrame() ([]byte, error) {
	o.mu.Lock()
	src := o.source
	o.mu.Unlock()

	if src == nil {
		return nil, ErrNoSession
	}
	return src.CaptureJPEG()
}

// AnalyzeMotionOnce captures two frames MotionDelay apart, sends them
// to the backend, and stores the result. The movement description is
// also exposed as a transient banner that self-clears after BannerTTL;
// a new call replaces any pending banner timer. Duplicate calls while
// one is in flight are rejected with ErrBusy.
func (o *Orchestrator) AnalyzeMotionOnce(ctx context.Context) error {
	o.mu.Lock()
	if !o.state.SessionActive {
		o.mu.Unlock()
		return ErrNoSession
	}
	if o.state.Mode != ModeMotion {
		o.mu.Unlock()
		return ErrWrongMode
	}
	if o.state.Analyzing {
		o.mu.Unlock()
		return ErrBusy
	}
	o.state.Analyzing = true
	epoch := o.epoch
	src := o.source
	st := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(st)

	// Guaranteed release, unless the session was torn down meanwhile
	// (teardown already reset the flag).
	defer func() {
		o.mu.Lock()
		if o.epoch != epoch {
			o.mu.Unlock()
			return
		}
		o.state.Analyzing = false
		st := o.snapshotLocked()
		o.mu.Unlock()
		o.emit(st)
	}()

	frameA, err := src.CaptureJPEG()
	if err != nil {
		err = fmt.Errorf("capture first frame: %w", err)
		o.recordMotionError(epoch, err)
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.cfg.MotionDelay):
	}

	frameB, err := src.CaptureJPEG()
	if err != nil {
		err = fmt.Errorf("capture second frame: %w", err)
		o.recordMotionError(epoch, err)
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	res, err := o.client.AnalyzeMotion(reqCtx, frameA, frameB)
	if err != nil {
		o.recordMotionError(epoch, err)
		return err
	}

	o.mu.Lock()
	if o.epoch != epoch {
		// Session ended while the request was in flight.
		o.mu.Unlock()
		return nil
	}
	o.state.LastResult = res
	o.state.LastError = ""
	o.state.Banner = res.Movement
	o.armBannerLocked(epoch)
	st = o.snapshotLocked()
	o.mu.Unlock()
	o.emit(st)
	return nil
}

// recordMotionError stores a user-visible error and clears any
// previous result. One-shot failures are persistent until the next
// success or mode switch.
func (o *Orchestrator) recordMotionError(epoch uint64, err error) {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return
	}
	o.state.LastResult = nil
	o.state.LastError = err.Error()
	st := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(st)
}

// ToggleLiveDetection flips live polling on or off.
//
// idle -> detecting: clears prior detections and errors, runs one
// cycle immediately, then polls every PollInterval.
// detecting -> idle: disarms the timer and clears the detection set
// so the overlay disappears immediately.
func (o *Orchestrator) ToggleLiveDetection() error {
	o.mu.Lock()
	if !o.state.SessionActive {
		o.mu.Unlock()
		return ErrNoSession
	}
	if o.state.Mode != ModeLive {
		o.mu.Unlock()
		return ErrWrongMode
	}

	if o.state.Detecting {
		o.disarmPollLocked()
		o.state.Detecting = false
		o.state.LastDetections = nil
		st := o.snapshotLocked()
		o.mu.Unlock()
		o.emit(st)
		return nil
	}

	o.state.Detecting = true
	o.state.LastDetections = nil
	o.state.LastError = ""
	task := newPollTask()
	o.poll = task
	st := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(st)

	go o.runPoll(task)
	return nil
}

// runPoll performs the immediate first cycle, then one per tick until
// the task is cancelled.
func (o *Orchestrator) runPoll(t *pollTask) {
	defer close(t.done)

	o.detectCycle(t)

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			o.detectCycle(t)
		}
	}
}

// detectCycle captures one frame and asks the backend for objects.
// Failures here are expected to be transient: they are logged only,
// never surfaced to the user, and never clear the existing overlay.
// Results land only while t is still the current poll task; every
// cancellation path nils o.poll under the lock, so a cycle that was
// in flight across a toggle can never write into a later episode.
func (o *Orchestrator) detectCycle(t *pollTask) {
	if !o.visible() {
		return
	}

	// Skip the tick if the previous cycle is still awaiting the
	// backend; cycles are never pipelined.
	if !t.busy.CompareAndSwap(false, true) {
		log.Debug("live detection: previous cycle still in flight, skipping tick")
		return
	}
	defer t.busy.Store(false)

	o.mu.Lock()
	if o.poll != t || !o.state.Detecting {
		o.mu.Unlock()
		return
	}
	src := o.source
	o.mu.Unlock()

	frame, err := src.CaptureJPEG()
	if err != nil {
		log.Debug("live detection: capture failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.RequestTimeout)
	defer cancel()

	dets, err := o.client.DetectObjects(ctx, frame)

	o.mu.Lock()
	if o.poll != t || !o.state.Detecting {
		o.mu.Unlock()
		return
	}
	if err != nil {
		o.mu.Unlock()
		log.Warn("live detection: backend call failed", "error", err)
		return
	}
	o.state.LastDetections = dets
	o.state.LastError = ""
	st := o.snapshotLocked()
	o.mu.Unlock()
	o.emit(st)
}

// armBannerLocked schedules the banner to self-clear, replacing any
// pending timer so banners never stack.
func (o *Orchestrator) armBannerLocked(epoch uint64) {
	if o.banner != nil {
		o.banner.Stop()
	}
	o.banner = time.AfterFunc(o.cfg.BannerTTL, func() {
		o.mu.Lock()
		if o.epoch != epoch || o.state.Banner == "" {
			o.mu.Unlock()
			return
		}
		o.state.Banner = ""
		st := o.snapshotLocked()
		o.mu.Unlock()
		o.emit(st)
	})
}

// disarmTimersLocked stops the poll task and the banner timer.
// Callers must hold o.mu and have already bumped the epoch.
func (o *Orchestrator) disarmTimersLocked() {
	o.disarmPollLocked()
	if o.banner != nil {
		o.banner.Stop()
		o.banner = nil
	}
}

func (o *Orchestrator) disarmPollLocked() {
	if o.poll != nil {
		o.poll.cancel()
		o.poll = nil
	}
}

func (o *Orchestrator) visible() bool {
	if o.Visible == nil {
		return true
	}
	return o.Visible()
}

// snapshotLocked deep-copies the state so readers never alias the
// orchestrator's slices.
func (o *Orchestrator) snapshotLocked() State {
	st := o.state
	if st.LastResult != nil {
		r := *st.LastResult
		st.LastResult = &r
	}
	if st.LastDetections != nil {
		st.LastDetections = append([]analysis.Detection(nil), st.LastDetections...)
	}
	return st
}

func (o *Orchestrator) emit(st State) {
	if o.OnChange != nil {
		o.OnChange(st)
	}
}
