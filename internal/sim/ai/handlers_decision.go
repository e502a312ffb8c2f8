package ai

import (
	"sort"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/perception"
)

// handleIdle only exists to satisfy the dispatch table: the evaluator never
// scores Idle as a goal winner (spec.md has no scorer targeting it), so
// Dispatch always redirects away from it before this runs. Kept for direct
// testing and as the entity's state at construction time.
func handleIdle(ctx Context) (sim.AIState, sim.ActionProposal) {
	winner := EvaluateGoals(ctx)
	if winner == sim.StateIdle {
		return restRemainHere(ctx, "idle")
	}
	return dispatchHandler(winner, ctx)
}

// handleWander implements the Explore goal in execution: walk toward the
// nearest frontier cell, recording each stepped-through cell into terrain
// memory is the WorldLoop's job (Phase 4), not the brain's — the brain only
// proposes the move.
func handleWander(ctx Context) (sim.AIState, sim.ActionProposal) {
	target, ok := perception.FindFrontierTarget(ctx.Actor, ctx.Snap)
	if !ok {
		return restRemainHere(ctx, "nothing left to explore")
	}
	step, ok := NextStep(ctx, target)
	if !ok {
		return restRemainHere(ctx, "frontier unreachable")
	}
	return sim.StateWander, moveTo(ctx, step, "exploring toward frontier")
}

// handleRestingInTown implements the Rest goal: travel to the actor's home
// position (a town/inn anchor) if not already there, then rest in place
// until hp/stamina recover, per Cfg.RestUntilRatio.
func handleRestingInTown(ctx Context) (sim.AIState, sim.ActionProposal) {
	if ctx.Actor.Pos != ctx.Actor.HomePos {
		step, ok := NextStep(ctx, ctx.Actor.HomePos)
		if !ok {
			return restRemainHere(ctx, "resting in place, home unreachable")
		}
		return sim.StateRestingInTown, moveTo(ctx, step, "returning home to rest")
	}

	hpRatio := sim.HPRatio(&ctx.Actor, ctx.Snap.Registry)
	stamRatio := sim.StaminaRatio(&ctx.Actor)
	if hpRatio >= ctx.Cfg.RestUntilRatio && stamRatio >= ctx.Cfg.RestUntilRatio {
		next := economyGoal(ctx)
		return next, sim.ActionProposal{
			ActorID:        ctx.Actor.ID,
			ActorNextActAt: ctx.Actor.NextActAt,
			Verb:           sim.VerbRest,
			NewAIState:     next,
			HasNewAIState:  true,
			Reason:         "fully rested, " + next.String(),
		}
	}
	return sim.StateRestingInTown, sim.ActionProposal{
		ActorID:        ctx.Actor.ID,
		ActorNextActAt: ctx.Actor.NextActAt,
		Verb:           sim.VerbRest,
		Reason:         "resting",
	}
}

// economyGoal evaluates the fixed-priority economy policy a rested actor
// runs before leaving town (spec.md §4.5: "Sell, Buy, Learn/Craft,
// Intel/Quest, Leave"). The actual buy/sell/craft/quest-assignment
// transaction happens once the actor is standing at the matching building
// (engine/bookkeeping.go's runEconomyTransactions); this only picks which
// building, if any, is worth the trip.
func economyGoal(ctx Context) sim.AIState {
	if ctx.Actor.Inventory == nil {
		return sim.StateWander
	}
	hasSellable := false
	for _, st := range ctx.Actor.Inventory.Bag {
		if def, ok := ctx.Snap.Registry.Item(st.ItemID); ok && def.Sellable {
			hasSellable = true
			break
		}
	}
	if hasSellable {
		return sim.StateVisitShop // Sell
	}
	if ctx.Actor.Base.Gold > 0 && len(ctx.Actor.Inventory.Bag) < ctx.Cfg.BagFullSellThreshold {
		return sim.StateVisitShop // Buy
	}
	recipes := ctx.Snap.Registry.Recipes()
	recipeIDs := make([]string, 0, len(recipes))
	for id := range recipes {
		recipeIDs = append(recipeIDs, id)
	}
	sort.Strings(recipeIDs)
	for _, id := range recipeIDs {
		if hasMaterials(ctx.Actor, recipes[id]) {
			return sim.StateVisitBlacksmith // Learn/Craft
		}
	}

	quests := ctx.Snap.Registry.Quests()
	questIDs := make([]string, 0, len(quests))
	for id := range quests {
		questIDs = append(questIDs, id)
	}
	sort.Strings(questIDs)
	for _, qid := range questIDs {
		if ctx.Actor.QuestProgress[qid] == 0 && !ctx.Actor.CompletedQuests[qid] {
			return sim.StateVisitGuild // Intel/Quest
		}
	}
	return sim.StateWander // Leave
}

// hasMaterials reports whether actor's bag holds every material a recipe
// requires, in sufficient quantity.
func hasMaterials(actor sim.Entity, r sim.RecipeDef) bool {
	if actor.Inventory == nil {
		return false
	}
	have := make(map[string]int, len(actor.Inventory.Bag))
	for _, st := range actor.Inventory.Bag {
		have[st.ItemID] += st.Count
	}
	for itemID, need := range r.Materials {
		if have[itemID] < need {
			return false
		}
	}
	return true
}

// handleGuardCamp keeps a camp-assigned actor anchored near HomePos,
// stepping back when it has strayed past its leash radius and otherwise
// holding position and watching for intruders (Combat/Flee preempt via the
// evaluator next tick).
func handleGuardCamp(ctx Context) (sim.AIState, sim.ActionProposal) {
	d := ctx.Actor.Pos.Manhattan(ctx.Actor.HomePos)
	if d > ctx.Actor.LeashRadius {
		step, ok := NextStep(ctx, ctx.Actor.HomePos)
		if ok {
			return sim.StateGuardCamp, moveTo(ctx, step, "returning to guard post")
		}
	}
	return restRemainHere(ctx, "guarding camp")
}
