package ai

import (
	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/perception"
)

// interruptRadius is "any hostile within 3 tiles" (spec.md §4.5's Looting
// interruption rule, reused verbatim for Harvesting).
const interruptRadius = 3

// handleHunt pursues the actor's highest-threat (or nearest) visible
// hostile, closing distance until in weapon or skill range, then hands off
// to Combat in the same tick.
func handleHunt(ctx Context) (sim.AIState, sim.ActionProposal) {
	visible := perception.VisibleEntities(ctx.Actor, ctx.Snap)
	targetID, found := perception.HighestThreatEnemy(ctx.Actor, visible, ctx.Snap)
	if !found {
		return dispatchHandler(sim.StateWander, ctx)
	}
	target, ok := ctx.Snap.Entity(targetID)
	if !ok || !target.Alive {
		return dispatchHandler(sim.StateWander, ctx)
	}

	dist := ctx.Actor.Pos.Manhattan(target.Pos)
	if dist <= int(ctx.Actor.WeaponRange) {
		return engageTarget(ctx, target, dist)
	}

	// Diagonal-deadlock rule (spec.md §4.5): two entities mutually hunting
	// each other at Manhattan distance exactly 2 along a diagonal would
	// otherwise both step sideways forever — each one's greedy step toward
	// the other keeps missing, since neither orthogonal step closes the gap
	// from the other's perspective. The higher id yields by resting in
	// place so the lower id's step actually closes the distance.
	if dist == 2 && isDiagonal(ctx.Actor.Pos, target.Pos) && target.AIState == sim.StateHunt && ctx.Actor.ID > target.ID {
		return sim.StateHunt, sim.ActionProposal{
			ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
			Verb: sim.VerbRest, Reason: "yielding diagonal approach to lower-id pursuer",
		}
	}

	step, ok := NextStep(ctx, target.Pos)
	if !ok {
		return restRemainHere(ctx, "target unreachable")
	}
	prop := moveTo(ctx, step, "closing on target")
	prop.NewAIState = sim.StateHunt
	prop.HasNewAIState = true
	return sim.StateHunt, prop
}

// isDiagonal reports whether b is exactly one cell away from a on both axes
// (Manhattan distance 2 along a true diagonal, as opposed to 2 in a straight
// line).
func isDiagonal(a, b sim.Pos) bool {
	return abs(a.X-b.X) == 1 && abs(a.Y-b.Y) == 1
}

// handleCombat is the steady-state engaged handler: re-acquire the same
// target id from the snapshot (actors never hold pointers across ticks),
// drink a potion or flee first if hp is critical, kite with ranged weapons,
// otherwise attack/cast if in range or close distance; gives up the chase
// once a non-hero strays beyond its leash for too long (spec.md §4.5 Combat).
func handleCombat(ctx Context) (sim.AIState, sim.ActionProposal) {
	targetID := ctx.Actor.CombatTargetID
	target, ok := ctx.Snap.Entity(targetID)
	if !ok || !target.Alive || !ctx.Snap.Factions.IsHostile(ctx.Actor.Faction, target.Faction) {
		return dispatchHandler(sim.StateHunt, ctx)
	}

	if !ctx.Actor.IsHero && ctx.Actor.EngagedTicks > ctx.Cfg.MobChaseGiveUpTicks {
		if ctx.Actor.Pos.Manhattan(ctx.Actor.HomePos) > ctx.Actor.LeashRadius {
			return sim.StateReturnToCamp, moveToward(ctx, ctx.Actor.HomePos, "giving up the chase")
		}
	}

	hpRatio := sim.HPRatio(&ctx.Actor, ctx.Snap.Registry)

	// "if hp < 50% and a potion is in the bag, propose UseItem
	// (largest-heal first)" (spec.md §4.5).
	if hpRatio < 0.5 {
		if itemID, ok := bestHealItem(ctx.Actor, ctx.Snap.Registry); ok {
			return sim.StateCombat, sim.ActionProposal{
				ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
				Verb: sim.VerbUseItem, Target: sim.Target{ItemID: itemID},
				NewAIState: sim.StateCombat, HasNewAIState: true,
				Reason: "drinking " + itemID,
			}
		}
	}

	if hpRatio < ctx.Cfg.FleeThresholdRatio {
		return dispatchHandler(sim.StateFlee, ctx)
	}

	dist := ctx.Actor.Pos.Manhattan(target.Pos)

	// Ranged combatants above the kite threshold back away from adjacent
	// targets instead of trading blows in melee range.
	if ctx.Actor.WeaponRange >= 3 && hpRatio > ctx.Cfg.KiteHPRatio && dist == 1 {
		away := awayFrom(ctx.Snap.Grid, ctx.Actor.Pos, target.Pos)
		prop := moveTo(ctx, away, "kiting")
		prop.NewAIState, prop.HasNewAIState = sim.StateCombat, true
		return sim.StateCombat, prop
	}

	if dist <= int(ctx.Actor.WeaponRange) {
		return engageTarget(ctx, target, dist)
	}

	step, ok := NextStep(ctx, target.Pos)
	if !ok {
		return restRemainHere(ctx, "target unreachable")
	}
	return sim.StateCombat, moveTo(ctx, step, "repositioning on target")
}

// bestHealItem returns the bag's highest-HealAmount consumable item id, if
// any ("largest-heal first", spec.md §4.5).
func bestHealItem(actor sim.Entity, reg *sim.Registry) (string, bool) {
	if actor.Inventory == nil {
		return "", false
	}
	best := ""
	bestHeal := -1
	for _, stack := range actor.Inventory.Bag {
		def, ok := reg.Item(stack.ItemID)
		if !ok || !def.IsConsumable || def.HealAmount <= 0 {
			continue
		}
		if def.HealAmount > bestHeal {
			best, bestHeal = def.ID, def.HealAmount
		}
	}
	return best, best != ""
}

// engageTarget scores every ready, in-range, non-ally skill as
// power * count(enemies within its radius) and proposes it only if that
// score beats a basic attack by 10%; otherwise it proposes a plain Attack
// (spec.md §4.5's skill-vs-attack contract).
func engageTarget(ctx Context, target sim.Entity, dist int) (sim.AIState, sim.ActionProposal) {
	attackScore := float64(ctx.Actor.Base.Atk)
	if attackScore <= 0 {
		attackScore = 1
	}

	best := ""
	bestScore := attackScore * 1.1
	for _, idx := range ctx.Actor.ReadySkills() {
		inst := ctx.Actor.Skills[idx]
		def, ok := ctx.Snap.Registry.Skill(inst.SkillID)
		if !ok || def.TargetsAllies || def.Range < float64(dist) {
			continue
		}
		score := def.Power * float64(countEnemiesWithin(ctx, target.Pos, def.Radius))
		if score > bestScore {
			best, bestScore = def.ID, score
		}
	}

	prop := sim.ActionProposal{
		ActorID:        ctx.Actor.ID,
		ActorNextActAt: ctx.Actor.NextActAt,
		NewAIState:     sim.StateCombat,
		HasNewAIState:  true,
	}
	if best != "" {
		prop.Verb = sim.VerbUseSkill
		prop.Target = sim.Target{EntityID: target.ID, HasEntity: true, SkillID: best}
		prop.Reason = "casting " + best
	} else {
		prop.Verb = sim.VerbAttack
		prop.Target = sim.Target{EntityID: target.ID, HasEntity: true}
		prop.Reason = "attacking"
	}
	return sim.StateCombat, prop
}

// countEnemiesWithin counts alive entities hostile to the actor within
// Manhattan radius of center, at least 1 (the skill's own primary target).
func countEnemiesWithin(ctx Context, center sim.Pos, radius float64) int {
	count := 0
	for id := range ctx.Snap.Entities {
		e, ok := ctx.Snap.Entity(id)
		if !ok || !e.Alive || !ctx.Snap.Factions.IsHostile(ctx.Actor.Faction, e.Faction) {
			continue
		}
		if float64(center.Manhattan(e.Pos)) <= radius {
			count++
		}
	}
	if count < 1 {
		count = 1
	}
	return count
}

// handleFlee moves directly away from the highest-threat visible hostile;
// once healed past the flee threshold with no hostile in sight, it hands
// back to the evaluator by proposing Rest in place (the next decision-state
// tick re-evaluates goals fresh).
func handleFlee(ctx Context) (sim.AIState, sim.ActionProposal) {
	visible := perception.VisibleEntities(ctx.Actor, ctx.Snap)
	threatID, found := perception.HighestThreatEnemy(ctx.Actor, visible, ctx.Snap)
	hpRatio := sim.HPRatio(&ctx.Actor, ctx.Snap.Registry)

	if !found {
		if hpRatio > ctx.Cfg.FleeThresholdRatio {
			return sim.StateWander, sim.ActionProposal{
				ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
				Verb: sim.VerbRest, Reason: "escaped, no longer fleeing",
			}
		}
		step, ok := NextStep(ctx, ctx.Actor.HomePos)
		if ok {
			return sim.StateFlee, moveTo(ctx, step, "fleeing toward home")
		}
		return restRemainHere(ctx, "cornered")
	}

	threat, _ := ctx.Snap.Entity(threatID)
	away := awayFrom(ctx.Snap.Grid, ctx.Actor.Pos, threat.Pos)
	return sim.StateFlee, moveTo(ctx, away, "fleeing")
}

// awayFrom returns a walkable neighbor of src that increases distance from
// threat the most, falling back to src if every neighbor is blocked or
// closer.
func awayFrom(g *sim.Grid, src, threat sim.Pos) sim.Pos {
	best := src
	bestDist := src.Manhattan(threat)
	neighbors := [4]sim.Pos{src.Add(1, 0), src.Add(-1, 0), src.Add(0, 1), src.Add(0, -1)}
	for _, n := range neighbors {
		if !g.IsWalkable(n.X, n.Y) {
			continue
		}
		d := n.Manhattan(threat)
		if d > bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// interrupted checks the common Looting/Harvesting interruption condition
// (spec.md §4.5): a critically low actor flees, and any hostile within
// interruptRadius tiles sends the actor back to Hunt instead of finishing
// the gather.
func interrupted(ctx Context) (sim.AIState, sim.ActionProposal, bool) {
	hpRatio := sim.HPRatio(&ctx.Actor, ctx.Snap.Registry)
	if hpRatio < ctx.Cfg.FleeThresholdRatio {
		state, prop := dispatchHandler(sim.StateFlee, ctx)
		return state, prop, true
	}
	visible := perception.VisibleEntities(ctx.Actor, ctx.Snap)
	if enemyID, found := perception.NearestEnemy(ctx.Actor, visible, ctx.Snap); found {
		if enemy, ok := ctx.Snap.Entity(enemyID); ok && ctx.Actor.Pos.Manhattan(enemy.Pos) <= interruptRadius {
			state, prop := dispatchHandler(sim.StateHunt, ctx)
			return state, prop, true
		}
	}
	return sim.StateIdle, sim.ActionProposal{}, false
}

// handleLooting walks to the nearest ground item pile and accumulates
// loot_progress once standing on it, proposing Loot once loot_duration has
// been reached; with nothing left nearby, hands back to the evaluator.
// Interrupted by a nearby hostile or critical hp per spec.md §4.5.
func handleLooting(ctx Context) (sim.AIState, sim.ActionProposal) {
	if state, prop, yes := interrupted(ctx); yes {
		return state, prop
	}
	piles := perception.GroundLootNearby(ctx.Actor, ctx.Snap, ctx.Actor.EffectiveVisionRange())
	if len(piles) == 0 {
		return sim.StateWander, sim.ActionProposal{
			ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
			Verb: sim.VerbRest, Reason: "nothing left to loot",
		}
	}
	target := piles[0]
	if ctx.Actor.Pos == target {
		return sim.StateLooting, sim.ActionProposal{
			ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
			Verb:   sim.VerbLoot,
			Target: sim.Target{Duration: ctx.Cfg.LootDurationDefault},
			Reason: "gathering loot",
		}
	}
	step, ok := NextStep(ctx, target)
	if !ok {
		return restRemainHere(ctx, "loot unreachable")
	}
	return sim.StateLooting, moveTo(ctx, step, "moving to loot")
}

// handleHarvesting walks to the nearest non-depleted resource node and
// accumulates harvest_progress once adjacent or on it, proposing Harvest
// once harvest_duration has been reached. Interrupted by a nearby hostile or
// critical hp per spec.md §4.5.
func handleHarvesting(ctx Context) (sim.AIState, sim.ActionProposal) {
	if state, prop, yes := interrupted(ctx); yes {
		return state, prop
	}
	var best *sim.ResourceNode
	bestDist := int(1 << 30)
	for i := range ctx.Snap.Nodes {
		n := &ctx.Snap.Nodes[i]
		if n.Depleted() {
			continue
		}
		d := ctx.Actor.Pos.Manhattan(n.Pos)
		if d < bestDist {
			best, bestDist = n, d
		}
	}
	if best == nil {
		return sim.StateWander, sim.ActionProposal{
			ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
			Verb: sim.VerbRest, Reason: "no resources nearby",
		}
	}
	if bestDist <= 1 {
		return sim.StateHarvesting, sim.ActionProposal{
			ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
			Verb:   sim.VerbHarvest,
			Target: sim.Target{NodeID: best.ID, HasNode: true, Duration: ctx.Cfg.HarvestDurationDefault},
			Reason: "harvesting",
		}
	}
	step, ok := NextStep(ctx, best.Pos)
	if !ok {
		return restRemainHere(ctx, "node unreachable")
	}
	return sim.StateHarvesting, moveTo(ctx, step, "moving to resource node")
}

// handleReturnToTown walks to the actor's home position, handing off to
// RestingInTown on arrival.
func handleReturnToTown(ctx Context) (sim.AIState, sim.ActionProposal) {
	if ctx.Actor.Pos == ctx.Actor.HomePos {
		return dispatchHandler(sim.StateRestingInTown, ctx)
	}
	return sim.StateReturnToTown, moveToward(ctx, ctx.Actor.HomePos, "returning to town")
}

// handleReturnToCamp walks to the nearest camp anchor, handing off to
// GuardCamp on arrival.
func handleReturnToCamp(ctx Context) (sim.AIState, sim.ActionProposal) {
	campPos, ok := perception.NearestCamp(ctx.Actor, ctx.Snap)
	if !ok {
		return restRemainHere(ctx, "no camp known")
	}
	if ctx.Actor.Pos == campPos {
		return dispatchHandler(sim.StateGuardCamp, ctx)
	}
	return sim.StateReturnToCamp, moveToward(ctx, campPos, "returning to camp")
}

// handleAlert is entered when bookkeeping broadcasts a territory intrusion
// (spec.md §4.9 Phase 4b); it behaves like Hunt but degrades back to
// GuardCamp once no intruder remains visible.
func handleAlert(ctx Context) (sim.AIState, sim.ActionProposal) {
	visible := perception.VisibleEntities(ctx.Actor, ctx.Snap)
	targetID, found := perception.NearestEnemy(ctx.Actor, visible, ctx.Snap)
	if !found {
		return dispatchHandler(sim.StateGuardCamp, ctx)
	}
	target, ok := ctx.Snap.Entity(targetID)
	if !ok {
		return dispatchHandler(sim.StateGuardCamp, ctx)
	}
	dist := ctx.Actor.Pos.Manhattan(target.Pos)
	if dist <= int(ctx.Actor.WeaponRange) {
		return engageTarget(ctx, target, dist)
	}
	step, ok := NextStep(ctx, target.Pos)
	if !ok {
		return restRemainHere(ctx, "intruder unreachable")
	}
	prop := moveTo(ctx, step, "responding to intrusion")
	prop.NewAIState = sim.StateAlert
	prop.HasNewAIState = true
	return sim.StateAlert, prop
}

// handleVisit returns a handler that walks the actor to the nearest
// building of the given kind, then holds position there. The actual
// economy transaction (buy/sell/craft/learn) is not a brain proposal: it is
// applied by the WorldLoop's bookkeeping phase against any actor standing
// in the matching building, matching the spec's treatment of the economy
// as bookkeeping rather than a resolver verb.
func handleVisit(kind sim.BuildingKind) handlerFunc {
	return func(ctx Context) (sim.AIState, sim.ActionProposal) {
		var target *sim.Building
		bestDist := int(1 << 30)
		for i := range ctx.Snap.Buildings {
			b := &ctx.Snap.Buildings[i]
			if b.Kind != kind {
				continue
			}
			d := ctx.Actor.Pos.Manhattan(b.Pos)
			if d < bestDist {
				target, bestDist = b, d
			}
		}
		if target == nil {
			return restRemainHere(ctx, "no matching building known")
		}
		state := visitState(kind)
		if ctx.Actor.Pos == target.Pos {
			return state, sim.ActionProposal{
				ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
				Verb: sim.VerbRest, Reason: "transacting",
			}
		}
		step, ok := NextStep(ctx, target.Pos)
		if !ok {
			return restRemainHere(ctx, "building unreachable")
		}
		return state, moveTo(ctx, step, "traveling to transact")
	}
}

func visitState(kind sim.BuildingKind) sim.AIState {
	switch kind {
	case sim.BuildingBlacksmith:
		return sim.StateVisitBlacksmith
	case sim.BuildingGuild:
		return sim.StateVisitGuild
	case sim.BuildingClassHall:
		return sim.StateVisitClassHall
	case sim.BuildingInn:
		return sim.StateVisitInn
	default:
		return sim.StateVisitShop
	}
}

// moveToward is moveTo's multi-tick form: it keeps proposing a single step
// toward dst across ticks, preserving whatever state the caller is already
// committed to (ReturnToTown/ReturnToCamp) rather than Wander's state.
func moveToward(ctx Context, dst sim.Pos, reason string) sim.ActionProposal {
	step, ok := NextStep(ctx, dst)
	if !ok {
		return sim.ActionProposal{
			ActorID: ctx.Actor.ID, ActorNextActAt: ctx.Actor.NextActAt,
			Verb: sim.VerbRest, Reason: reason + " (unreachable)",
		}
	}
	return moveTo(ctx, step, reason)
}
