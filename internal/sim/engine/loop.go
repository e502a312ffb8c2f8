// Package engine implements the WorldLoop (C10): the authoritative,
// single-goroutine tick driver that runs the four phases of spec.md §4.9 —
// scheduling/generators, snapshot/dispatch, resolve/apply, bookkeeping —
// and publishes a fresh read-only Snapshot after each tick. It is grounded
// on the teacher's Engine.tick (_examples/iamvalenciia-kick-game-stream/
// fight-club-go/internal/game/engine.go): a single mutex-guarded tick
// function invoked off a time.Ticker, generalized from one flat update pass
// into the spec's four explicit phases and from a mutex-protected snapshot
// pool to a lock-free atomic.Pointer swap.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/ai"
	"github.com/emberreach/worldsim/internal/sim/events"
	"github.com/emberreach/worldsim/internal/sim/resolver"
	"github.com/emberreach/worldsim/internal/sim/worker"
)

// Config bundles every tunable the WorldLoop's phases read. It owns no
// mutable state itself — copies are cheap and safe to share.
type Config struct {
	CellSize       int
	TickBudget     time.Duration // Phase 2's hard worker deadline
	NumWorkers     int
	AI             ai.Config
	Resolver       resolver.Config
	Spawn          SpawnConfig
}

// DefaultConfig returns the reference tuning for every phase.
func DefaultConfig() Config {
	return Config{
		CellSize:   16,
		TickBudget: 40 * time.Millisecond,
		NumWorkers: 0,
		AI:         ai.DefaultConfig(),
		Resolver:   resolver.DefaultConfig(),
		Spawn:      DefaultSpawnConfig(),
	}
}

// TickTrace captures what a tick actually decided: the tick number, the
// committed proposals (post worker-dispatch, pre-resolve), and the ids of
// any entities the generators created. It is the unit a replay log
// records (spec.md §6's "append-only sequence of tick records").
type TickTrace struct {
	Tick      int64
	Proposals []sim.ActionProposal
	Spawned   []int64
}

// Loop drives a single WorldState through ticks. It is not safe for
// concurrent calls to Tick from multiple goroutines — only one tick runs at
// a time, matching the spec's single authoritative mutator (spec.md §5).
// Snapshot() is safe to call from any number of goroutines concurrently.
type Loop struct {
	World  *sim.WorldState
	Log    *events.Log
	Config Config

	// Recorder, if set, is invoked once per tick with the TickTrace Tick
	// just produced — the hook a replay log writer attaches to.
	Recorder func(TickTrace)

	snapshot atomic.Pointer[sim.Snapshot]
}

// New constructs a Loop and publishes an initial snapshot of world's
// starting state, so Snapshot() never returns nil.
func New(world *sim.WorldState, log *events.Log, cfg Config) *Loop {
	l := &Loop{World: world, Log: log, Config: cfg}
	l.snapshot.Store(sim.BuildSnapshot(world, cfg.CellSize))
	return l
}

// Snapshot returns the most recently published Snapshot. Safe for any
// number of concurrent readers; never blocks on Tick.
func (l *Loop) Snapshot() *sim.Snapshot {
	return l.snapshot.Load()
}

// Tick runs exactly one iteration of the four-phase cycle and publishes a
// fresh snapshot at the end. ctx bounds Phase 2's worker deadline; it is
// not a per-tick timeout for the whole cycle, since Phases 1/3/4 are
// single-threaded bookkeeping with no natural cancellation point.
func (l *Loop) Tick(ctx context.Context) TickTrace {
	w := l.World
	tickNum := w.Tick

	// Phase 1: Scheduling & Generators.
	spawned := runGenerators(w, l.Config.Spawn, l.Log)
	ready := w.ReadyActors(float64(w.Tick))

	// Phase 2: Snapshot & Dispatch.
	snap := sim.BuildSnapshot(w, l.Config.CellSize)
	results := worker.Run(ctx, snap, ready, worker.Options{
		Deadline:   l.Config.TickBudget,
		NumWorkers: l.Config.NumWorkers,
		Cfg:        l.Config.AI,
	})
	proposals := make([]sim.ActionProposal, len(results))
	for i, r := range results {
		proposals[i] = r.Proposal
	}

	l.applyProposals(proposals)

	trace := TickTrace{Tick: tickNum, Proposals: proposals, Spawned: spawned}
	if l.Recorder != nil {
		l.Recorder(trace)
	}
	return trace
}

// ReplayTick drives the world forward using proposals recorded by an
// earlier run's Recorder hook instead of dispatching the worker pool,
// reproducing that run's Phase 3/4 outcome without recomputing AI
// (spec.md §6/§8's replay law). Phase 1's generators still run — they are
// a pure function of (seed, tick, camp id) and reproduce the same spawns
// deterministically, so only the AI-derived proposals need to be supplied.
func (l *Loop) ReplayTick(proposals []sim.ActionProposal) TickTrace {
	w := l.World
	tickNum := w.Tick
	spawned := runGenerators(w, l.Config.Spawn, l.Log)
	l.applyProposals(proposals)
	return TickTrace{Tick: tickNum, Proposals: proposals, Spawned: spawned}
}

// applyProposals runs Phase 3 (Resolve & Apply) and Phase 4 (Bookkeeping)
// against the given proposals and publishes the resulting snapshot. Shared
// by Tick and ReplayTick so both phases stay byte-identical between a live
// run and its replay.
func (l *Loop) applyProposals(proposals []sim.ActionProposal) {
	w := l.World

	// Phase 3: Resolve & Apply.
	resolver.Resolve(w, l.Log, l.Config.Resolver, proposals)

	// Phase 4: Bookkeeping (sub-steps a-m).
	runBookkeeping(w, l.Log, l.Config.AI)

	// Publish the post-tick world for the next round of readers.
	l.snapshot.Store(sim.BuildSnapshot(w, l.Config.CellSize))
}
