// Package ai implements the hybrid utility/state-handler brain (C7): for
// each actor, goal evaluation in decision states or state-handler dispatch
// in execution states, producing (new_ai_state, ActionProposal). It is
// grounded on the teacher's Player.Update AI loop
// (_examples/iamvalenciia-kick-game-stream/fight-club-go/internal/game/player.go)
// generalized from a single hardcoded aggression check into the spec's
// closed state-tag dispatch table (spec.md §9: "one function per variant is
// preferred over a polymorphic interface when the set is fixed").
package ai

import (
	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/rngsvc"
)

// Config holds the tunable thresholds the brain reads. None of these are
// content (item/skill tables); they are behavioral constants, matching the
// teacher's CombatConstants block (internal/game/combat.go) in spirit.
type Config struct {
	FleeThresholdRatio   float64 // hp ratio below which Combat/Wander transitions to Flee
	RestUntilRatio       float64 // hp ratio RestingInTown heals to before running the economy policy
	KiteHPRatio          float64 // hp ratio above which ranged combatants kite instead of closing
	LeashRadiusDefault   int
	MobChaseGiveUpTicks  int
	LootDurationDefault  int
	HarvestDurationDefault int
	GreedyMoveMaxDist    int // distances <= this use greedy/perpendicular movement instead of the bounded weighted search
	AStarNodeCap         int
	FrontierSearchRadius int
	ScorerTopK           int // top-N scorers sampled by weight
	ScorerMinThreshold   float64
	InventoryCapacity    int
	BagFullSellThreshold int // bag occupancy at/above which Trade scorer saturates
}

// DefaultConfig returns the reference tuning used throughout the engine.
func DefaultConfig() Config {
	return Config{
		FleeThresholdRatio:     0.25,
		RestUntilRatio:         1.0,
		KiteHPRatio:            0.6,
		LeashRadiusDefault:     12,
		MobChaseGiveUpTicks:    40,
		LootDurationDefault:    3,
		HarvestDurationDefault: 4,
		GreedyMoveMaxDist:      2,
		AStarNodeCap:           400,
		FrontierSearchRadius:   30,
		ScorerTopK:             3,
		ScorerMinThreshold:     0.05,
		InventoryCapacity:      20,
		BagFullSellThreshold:   16,
	}
}

// Context bundles everything a handler or scorer needs: the actor's own
// snapshot copy, the world snapshot, the simulation config, and an RNG
// handle bound to the current tick. Nothing here is mutable shared state;
// handlers run purely against these values.
type Context struct {
	Actor sim.Entity
	Snap  *sim.Snapshot
	Cfg   Config
	RNG   rngsvc.Handle
}

// Dispatch is the brain's single entry point (C7). In a decision state it
// runs the utility evaluator to pick a winner state; if the winner differs
// from the actor's current decision state, it dispatches straight into the
// winner's handler in the same tick rather than burning a tick on a bare
// transition. Otherwise (execution state, or the winner round-trips back
// to the same decision state) it invokes that state's registered handler.
func Dispatch(ctx Context) (sim.AIState, sim.ActionProposal) {
	state := ctx.Actor.AIState
	if state.IsDecisionState() {
		winner := EvaluateGoals(ctx)
		state = winner
	}
	return dispatchHandler(state, ctx)
}

type handlerFunc func(Context) (sim.AIState, sim.ActionProposal)

var handlerTable = map[sim.AIState]handlerFunc{
	sim.StateIdle:            handleIdle,
	sim.StateWander:          handleWander,
	sim.StateRestingInTown:   handleRestingInTown,
	sim.StateGuardCamp:       handleGuardCamp,
	sim.StateHunt:            handleHunt,
	sim.StateCombat:          handleCombat,
	sim.StateFlee:            handleFlee,
	sim.StateLooting:         handleLooting,
	sim.StateAlert:           handleAlert,
	sim.StateHarvesting:      handleHarvesting,
	sim.StateReturnToTown:    handleReturnToTown,
	sim.StateReturnToCamp:    handleReturnToCamp,
	sim.StateVisitShop:       handleVisit(sim.BuildingShop),
	sim.StateVisitBlacksmith: handleVisit(sim.BuildingBlacksmith),
	sim.StateVisitGuild:      handleVisit(sim.BuildingGuild),
	sim.StateVisitClassHall:  handleVisit(sim.BuildingClassHall),
	sim.StateVisitInn:        handleVisit(sim.BuildingInn),
	sim.StateVisitHome:       handleReturnToTown,
}

func dispatchHandler(state sim.AIState, ctx Context) (sim.AIState, sim.ActionProposal) {
	h, ok := handlerTable[state]
	if !ok {
		return sim.StateIdle, sim.RestProposal(ctx.Actor.ID, ctx.Actor.NextActAt, "no handler registered")
	}
	return h(ctx)
}

// restRemainHere is the common "nothing to do" proposal, carrying the
// current state forward unchanged.
func restRemainHere(ctx Context, reason string) (sim.AIState, sim.ActionProposal) {
	return ctx.Actor.AIState, sim.ActionProposal{
		ActorID:        ctx.Actor.ID,
		ActorNextActAt: ctx.Actor.NextActAt,
		Verb:           sim.VerbRest,
		Reason:         reason,
	}
}

func moveTo(ctx Context, target sim.Pos, reason string) sim.ActionProposal {
	return sim.ActionProposal{
		ActorID:        ctx.Actor.ID,
		ActorNextActAt: ctx.Actor.NextActAt,
		Verb:           sim.VerbMove,
		Target:         sim.Target{Pos: target, HasPos: true},
		Reason:         reason,
	}
}
