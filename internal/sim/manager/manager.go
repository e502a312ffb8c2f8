// Package manager implements the EngineManager (C11, spec.md §4.10): it
// owns a WorldLoop, drives its Tick on a background goroutine at a
// configurable rate, and exposes the control-channel lifecycle (start,
// pause, resume, step, reset, set-tps, clear-events) with deterministic
// semantics. It is grounded on the teacher's Engine.Start/Stop
// (_examples/iamvalenciia-kick-game-stream/fight-club-go/internal/game/
// engine.go): a ticker-driven goroutine gated by a stopChan, generalized
// from a binary running/stopped flag into the spec's three-state machine
// and from panicking-on-bad-input to returning a diagnostic error.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/engine"
	"github.com/emberreach/worldsim/internal/sim/events"
)

// Status is the manager's closed lifecycle state set (spec.md §4.10, §7).
type Status int

const (
	StatusStopped Status = iota
	StatusRunning
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusRunning:
		return "Running"
	case StatusPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// ErrInvalidCommand is returned for a control command that is a no-op in
// the manager's current state (spec.md §7's "Control-command misuse").
var ErrInvalidCommand = errors.New("manager: command not valid in current state")

// WorldFactory builds a fresh WorldState from the manager's configured
// seed. Called on Start (if no world yet exists) and on every Reset, so
// repeated resets with the same factory are byte-identical.
type WorldFactory func() (*sim.WorldState, error)

// Manager owns a WorldLoop and runs it on a background goroutine. External
// readers call Snapshot()/EventsSince() instead of ever touching
// WorldState directly.
type Manager struct {
	mu       sync.Mutex
	status   Status
	loop     *engine.Loop
	log      *events.Log
	cfg      engine.Config
	factory  WorldFactory
	recorder func(engine.TickTrace)

	tps      int
	stopChan chan struct{}
	doneChan chan struct{}

	lastError error
}

// New constructs a Manager in the Stopped state; it builds no world until
// Start is called.
func New(factory WorldFactory, cfg engine.Config, log *events.Log, tps int) *Manager {
	if tps <= 0 {
		tps = 20
	}
	return &Manager{
		status:  StatusStopped,
		cfg:     cfg,
		factory: factory,
		log:     log,
		tps:     tps,
	}
}

// Status returns the manager's current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// StatusCode returns the manager's lifecycle state as the small int the
// debug API's ManagerInterface exposes (0=Stopped 1=Running 2=Paused).
func (m *Manager) StatusCode() int {
	return int(m.Status())
}

// StatusString returns the manager's lifecycle state as a human-readable
// name, for the debug API's status/control responses.
func (m *Manager) StatusString() string {
	return m.Status().String()
}

// LastError returns the fatal error (if any) that transitioned the
// manager to Stopped, for diagnostics.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// Snapshot returns the latest published Snapshot. Safe to call from any
// goroutine at any manager state, including Stopped (returns the last
// snapshot before the stop, or nil if no world was ever built).
func (m *Manager) Snapshot() *sim.Snapshot {
	m.mu.Lock()
	l := m.loop
	m.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Snapshot()
}

// EventsSince returns a copy of the event log from the given tick forward.
func (m *Manager) EventsSince(tick int64) []events.Event {
	return m.log.Since(tick)
}

// Start enters Running from Stopped, building the world if none exists
// yet. A no-op (ErrInvalidCommand) if already Running or Paused.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusStopped {
		return ErrInvalidCommand
	}
	if m.loop == nil {
		if err := m.buildLoopLocked(); err != nil {
			m.lastError = err
			return fmt.Errorf("manager: building world: %w", err)
		}
	}
	m.startLocked()
	return nil
}

// Pause enters Paused from Running; the background goroutine suspends
// between ticks, never mid-tick.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusRunning {
		return ErrInvalidCommand
	}
	m.stopBackgroundLocked()
	m.status = StatusPaused
	return nil
}

// Resume returns to Running from Paused.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusPaused {
		return ErrInvalidCommand
	}
	m.startLocked()
	return nil
}

// Step executes exactly one tick while Paused; a no-op in any other state.
func (m *Manager) Step() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusPaused {
		return ErrInvalidCommand
	}
	defer m.recoverFatalLocked()
	m.runOneTickLocked()
	return nil
}

// Reset stops the loop (if running), discards the WorldState, constructs
// a new one from the same factory/seed, and enters Paused. A reset
// failure transitions the manager to Stopped with no partial world ever
// published.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopBackgroundLocked()
	if err := m.buildLoopLocked(); err != nil {
		m.status = StatusStopped
		m.lastError = err
		return fmt.Errorf("manager: reset: %w", err)
	}
	m.status = StatusPaused
	return nil
}

// SetRecorder attaches a hook invoked once per tick with that tick's trace
// (spec.md §6's replay log). It is re-attached to the loop on every Reset,
// so a recorder started before a reset keeps recording across it.
func (m *Manager) SetRecorder(fn func(engine.TickTrace)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = fn
	if m.loop != nil {
		m.loop.Recorder = fn
	}
}

// SetTPS sets the ticks-per-second target; it never changes lifecycle
// state. Takes effect on the next tick boundary.
func (m *Manager) SetTPS(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.tps = n
	}
}

// ClearEvents truncates the event log to empty.
func (m *Manager) ClearEvents() {
	m.log.Clear()
}

// Shutdown stops the background goroutine (if any) and blocks until it
// has joined, for a graceful process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopBackgroundLocked()
	m.status = StatusStopped
}

func (m *Manager) buildLoopLocked() error {
	world, err := m.factory()
	if err != nil {
		return err
	}
	m.loop = engine.New(world, m.log, m.cfg)
	m.loop.Recorder = m.recorder
	m.lastError = nil
	return nil
}

func (m *Manager) startLocked() {
	m.status = StatusRunning
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	go m.runLoop(m.stopChan, m.doneChan)
}

func (m *Manager) stopBackgroundLocked() {
	if m.stopChan == nil {
		return
	}
	close(m.stopChan)
	<-m.doneChan
	m.stopChan = nil
	m.doneChan = nil
}

// runLoop is the background goroutine: a ticker at the configured TPS,
// gated by stopChan, recovering from any invariant-violation panic and
// transitioning the manager to Stopped rather than crashing the process
// (spec.md §7's fatal-error propagation policy).
func (m *Manager) runLoop(stop, done chan struct{}) {
	defer close(done)
	defer m.recoverFatal()

	for {
		m.mu.Lock()
		tps := m.tps
		m.mu.Unlock()

		ticker := time.NewTicker(time.Second / time.Duration(tps))
		select {
		case <-ticker.C:
			ticker.Stop()
			m.lockedTick()
		case <-stop:
			ticker.Stop()
			return
		}
	}
}

// lockedTick acquires m.mu, runs exactly one tick, and releases it even if
// the tick panics, so a recovered fatal error never leaves the manager
// deadlocked on its own mutex.
func (m *Manager) lockedTick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runOneTickLocked()
}

// runOneTickLocked runs exactly one WorldLoop tick. Caller must hold m.mu.
func (m *Manager) runOneTickLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.TickBudget*4)
	defer cancel()
	m.loop.Tick(ctx)
}

// recoverFatal catches a panicking invariant violation unwinding out of
// the background goroutine (spec.md §7), logs full context, and
// transitions the manager to Stopped so no further tick is published.
func (m *Manager) recoverFatal() {
	if r := recover(); r != nil {
		m.mu.Lock()
		m.status = StatusStopped
		m.lastError = fmt.Errorf("fatal invariant violation: %v", r)
		m.mu.Unlock()
		log.Printf("worldsim: manager stopped on fatal error: %v", r)
	}
}

// recoverFatalLocked is recoverFatal's variant for callers (Step) that
// already hold m.mu when the tick panics.
func (m *Manager) recoverFatalLocked() {
	if r := recover(); r != nil {
		m.status = StatusStopped
		m.lastError = fmt.Errorf("fatal invariant violation: %v", r)
		log.Printf("worldsim: manager stopped on fatal error: %v", r)
	}
}
