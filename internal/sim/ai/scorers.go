package ai

import (
	"sort"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/perception"
	"github.com/emberreach/worldsim/internal/sim/rngsvc"
)

// goal pairs a utility score with the decision/execution state it maps to,
// mirroring the teacher's weighted-loot-table pattern
// (_examples/iamvalenciia-kick-game-stream/fight-club-go/internal/game/loot.go)
// generalized from item drops to behavior goals.
type goal struct {
	state sim.AIState
	score float64
}

// trait reads a personality bonus, defaulting when the actor has none set.
func trait(actor sim.Entity, key string, def float64) float64 {
	if v, ok := actor.Personality[key]; ok {
		return v
	}
	return def
}

// EvaluateGoals runs every registered goal scorer, keeps the top
// Cfg.ScorerTopK at or above Cfg.ScorerMinThreshold, and samples one of them
// weighted by score using a deterministic RNG roll (DomainAiDecision,
// subkey 0). Ties in score are broken by ascending AIState so the sample
// ordering never depends on map iteration order.
func EvaluateGoals(ctx Context) sim.AIState {
	goals := []goal{
		{sim.StateHunt, scoreCombat(ctx)},
		{sim.StateFlee, scoreFlee(ctx)},
		{sim.StateWander, scoreExplore(ctx)},
		{sim.StateLooting, scoreLoot(ctx)},
		{sim.StateVisitShop, scoreTrade(ctx)},
		{sim.StateRestingInTown, scoreRest(ctx)},
		{sim.StateVisitBlacksmith, scoreCraft(ctx)},
		{sim.StateVisitGuild, scoreSocial(ctx)},
		{sim.StateGuardCamp, scoreGuard(ctx)},
	}

	var candidates []goal
	for _, g := range goals {
		if g.score >= ctx.Cfg.ScorerMinThreshold {
			candidates = append(candidates, g)
		}
	}
	if len(candidates) == 0 {
		return sim.StateWander
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].state < candidates[j].state
	})
	if len(candidates) > ctx.Cfg.ScorerTopK {
		candidates = candidates[:ctx.Cfg.ScorerTopK]
	}

	var total float64
	for _, g := range candidates {
		total += g.score
	}
	if total <= 0 {
		return candidates[0].state
	}

	r := ctx.RNG.Float(rngsvc.DomainAiDecision, ctx.Actor.ID, 0) * total
	var cum float64
	for _, g := range candidates {
		cum += g.score
		if r < cum {
			return g.state
		}
	}
	return candidates[len(candidates)-1].state
}

// scoreCombat rewards engaging a visible hostile when healthy enough to
// fight (flee threshold is the cutoff, handled separately by scoreFlee).
func scoreCombat(ctx Context) float64 {
	hpRatio := sim.HPRatio(&ctx.Actor, ctx.Snap.Registry)
	if hpRatio <= ctx.Cfg.FleeThresholdRatio {
		return 0
	}
	visible := perception.VisibleEntities(ctx.Actor, ctx.Snap)
	_, found := perception.HighestThreatEnemy(ctx.Actor, visible, ctx.Snap)
	if !found {
		return 0
	}
	return clamp01(0.55 + trait(ctx.Actor, "aggression", 0) - trait(ctx.Actor, "caution", 0)*0.3)
}

// scoreFlee dominates once hp drops below the flee threshold while a
// hostile is visible or the actor is still engaged.
func scoreFlee(ctx Context) float64 {
	hpRatio := sim.HPRatio(&ctx.Actor, ctx.Snap.Registry)
	if hpRatio > ctx.Cfg.FleeThresholdRatio {
		return 0
	}
	if ctx.Actor.EngagedTicks <= 0 {
		visible := perception.VisibleEntities(ctx.Actor, ctx.Snap)
		if _, found := perception.NearestEnemy(ctx.Actor, visible, ctx.Snap); !found {
			return 0.1
		}
	}
	return clamp01(1.0 - hpRatio + trait(ctx.Actor, "caution", 0))
}

// scoreExplore is the baseline "nothing more pressing" goal: every actor
// always has some curiosity score so Wander never starves out.
func scoreExplore(ctx Context) float64 {
	base := 0.2 + trait(ctx.Actor, "curiosity", 0)
	if _, ok := perception.FindFrontierTarget(ctx.Actor, ctx.Snap); !ok {
		base *= 0.3
	}
	return clamp01(base)
}

// scoreLoot rewards nearby ground items scaled by greed and available bag
// space.
func scoreLoot(ctx Context) float64 {
	if !ctx.Actor.HasBagSpace(ctx.Cfg.InventoryCapacity) {
		return 0
	}
	loot := perception.GroundLootNearby(ctx.Actor, ctx.Snap, ctx.Actor.EffectiveVisionRange())
	if len(loot) == 0 {
		return 0
	}
	return clamp01(0.4 + trait(ctx.Actor, "greed", 0))
}

// scoreTrade rewards heading to the shop once the bag is nearly full of
// sellable goods, or when gold affords a meaningful restock.
func scoreTrade(ctx Context) float64 {
	if ctx.Actor.Inventory == nil {
		return 0
	}
	full := len(ctx.Actor.Inventory.Bag)
	if full < ctx.Cfg.BagFullSellThreshold {
		return 0
	}
	return clamp01(0.3 + float64(full)/float64(ctx.Cfg.InventoryCapacity))
}

// scoreRest rewards returning to town once hp or stamina run low and the
// actor is not currently engaged.
func scoreRest(ctx Context) float64 {
	if ctx.Actor.EngagedTicks > 0 {
		return 0
	}
	hpRatio := sim.HPRatio(&ctx.Actor, ctx.Snap.Registry)
	stamRatio := sim.StaminaRatio(&ctx.Actor)
	need := (1 - hpRatio) * 0.6
	if stamRatio < 0.3 {
		need += 0.3
	}
	return clamp01(need)
}

// scoreCraft rewards visiting the blacksmith when the actor holds enough
// materials for some known recipe.
func scoreCraft(ctx Context) float64 {
	if ctx.Actor.Inventory == nil {
		return 0
	}
	have := make(map[string]int, len(ctx.Actor.Inventory.Bag))
	for _, st := range ctx.Actor.Inventory.Bag {
		have[st.ItemID] += st.Count
	}
	for _, r := range ctx.Snap.Registry.Recipes() {
		if ctx.Actor.Tier < r.RequiredTier {
			continue
		}
		ok := true
		for id, need := range r.Materials {
			if have[id] < need {
				ok = false
				break
			}
		}
		if ok {
			return clamp01(0.45 + trait(ctx.Actor, "diligence", 0))
		}
	}
	return 0
}

// scoreSocial rewards guild visits for actors with a sociability trait,
// bounded so it never dominates survival goals.
func scoreSocial(ctx Context) float64 {
	soc := trait(ctx.Actor, "sociability", 0)
	if soc <= 0 {
		return 0
	}
	return clamp01(0.15 + soc*0.5)
}

// scoreGuard keeps camp-assigned non-heroes anchored near their camp.
func scoreGuard(ctx Context) float64 {
	if ctx.Actor.IsHero || ctx.Actor.HomePos == (sim.Pos{}) {
		return 0
	}
	d := ctx.Actor.Pos.Manhattan(ctx.Actor.HomePos)
	if d > ctx.Actor.LeashRadius {
		return 0.5
	}
	return 0.1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
