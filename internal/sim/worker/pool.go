// Package worker implements the parallel actor->proposal map (C8): a fixed
// worker pool that chunks the ready-actor id list the same way the teacher's
// parallel behavior pass does (_examples/other_examples/1495d744_pthm-soup__
// game-parallel.go.go: build snapshots single-threaded, compute chunks
// concurrently, apply single-threaded), generalized from a raw sync.WaitGroup
// to golang.org/x/sync/errgroup so a worker panic or the hard deadline both
// surface as a single error the WorldLoop can react to.
package worker

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/ai"
	"github.com/emberreach/worldsim/internal/sim/rngsvc"
)

// Result is one actor's computed proposal together with whether it was
// actually computed (false means the deadline hit first and a synthetic
// Rest proposal was substituted, per spec.md §5).
type Result struct {
	Proposal sim.ActionProposal
	Computed bool
}

// Options configures one Run invocation.
type Options struct {
	Deadline   time.Duration // hard wall-clock budget for the whole batch
	NumWorkers int           // 0 means runtime.GOMAXPROCS(0)
	Cfg        ai.Config
}

// Run computes one ActionProposal per id in ready, in parallel, bounded by
// Options.Deadline. Actors whose chunk has not been reached when the
// deadline fires get a synthetic Rest proposal instead of blocking the
// tick (spec.md §4.6, §5: determinism never depends on how many actors a
// worker got through before the clock ran out — a missed actor always
// produces the same Rest proposal, never a stale or partial one).
func Run(ctx context.Context, snap *sim.Snapshot, ready []int64, opts Options) []Result {
	n := len(ready)
	results := make([]Result, n)
	if n == 0 {
		return results
	}

	numWorkers := opts.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > n {
		numWorkers = n
	}

	deadlineCtx := ctx
	var cancel context.CancelFunc
	if opts.Deadline > 0 {
		deadlineCtx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(deadlineCtx)
	chunkSize := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		start, end := start, end
		g.Go(func() error {
			computeChunk(gctx, snap, ready, results, start, end, opts.Cfg)
			return nil
		})
	}
	_ = g.Wait() // computeChunk never returns an error; only the deadline can expire

	// Any result left uncomputed (deadline fired mid-chunk) gets a synthetic
	// Rest proposal with the actor's own snapshot-time scheduling key, so the
	// resolver's total order is unaffected by which actors timed out.
	for i, id := range ready {
		if !results[i].Computed {
			actor, ok := snap.Entity(id)
			nextActAt := 0.0
			if ok {
				nextActAt = actor.NextActAt
			}
			results[i] = Result{
				Proposal: sim.RestProposal(id, nextActAt, "worker deadline exceeded"),
				Computed: false,
			}
		}
	}
	return results
}

func computeChunk(ctx context.Context, snap *sim.Snapshot, ready []int64, results []Result, start, end int, cfg ai.Config) {
	for i := start; i < end; i++ {
		if ctx.Err() != nil {
			return
		}
		id := ready[i]
		actor, ok := snap.Entity(id)
		if !ok || !actor.Alive {
			results[i] = Result{Proposal: sim.RestProposal(id, 0, "actor vanished before dispatch"), Computed: true}
			continue
		}
		actx := ai.Context{
			Actor: actor,
			Snap:  snap,
			Cfg:   cfg,
			RNG:   rngsvc.NewHandle(snap.Seed, snap.Tick),
		}
		newState, proposal := ai.Dispatch(actx)
		if !proposal.HasNewAIState {
			proposal.NewAIState = newState
			proposal.HasNewAIState = true
		}
		results[i] = Result{Proposal: proposal, Computed: true}
	}
}
