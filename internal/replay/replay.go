package replay

import (
	"fmt"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/engine"
	"github.com/emberreach/worldsim/internal/sim/events"
)

// Replay drives world forward through every record in order, applying
// each tick's recorded proposals via Loop.ReplayTick instead of
// dispatching the AI worker pool. The returned Loop's Snapshot is the
// replayed run's final published state; spec.md §8's replay law requires
// this to match the original run's snapshot at every tick, not only the
// last one — callers that need per-tick verification should compare
// Loop.Snapshot() after each call to ReplayTick directly rather than via
// this helper.
func Replay(world *sim.WorldState, cfg engine.Config, records []TickRecord) (*engine.Loop, error) {
	loop := engine.New(world, events.NewLog(), cfg)
	for _, rec := range records {
		if world.Tick != rec.Tick {
			return nil, fmt.Errorf("replay: log out of order: world at tick %d, record for tick %d", world.Tick, rec.Tick)
		}
		proposals := make([]sim.ActionProposal, len(rec.Actions))
		for i, a := range rec.Actions {
			proposals[i] = a.toProposal()
		}
		loop.ReplayTick(proposals)
	}
	return loop, nil
}
