// Package resolver implements the conflict resolver (C9): it sorts a tick's
// proposals into the canonical total order, validates each against the
// live WorldState (never the stale snapshot a worker computed it from),
// downgrades anything invalid to Rest, and applies the surviving action.
// It is grounded on the teacher's CombatState (_examples/iamvalenciia-kick-
// game-stream/fight-club-go/internal/game/combat.go): tick-counted cooldown
// and timer state mutated by a single authoritative update path, adapted
// from one player's combo/dodge timers to the whole world's entities.
package resolver

import (
	"sort"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/events"
	"github.com/emberreach/worldsim/internal/sim/rngsvc"
)

// Config holds the per-verb action-cost constants the resolver uses to
// advance an actor's scheduling key after it acts. Costs are expressed in
// abstract "ticks at 100 speed"; NextActAt is always computed relative to
// the acting entity's effective Spd so faster entities act more often.
type Config struct {
	RestCost     float64
	AttackCost   float64
	SkillCost    float64
	UseItemCost  float64
	LootCost     float64
	HarvestCost  float64
	BaseMoveCost float64
	ReferenceSpd int // Spd at which cost scaling is 1:1

	// InventoryCapacity bounds Loot/Harvest bag growth (spec.md §4.8): any
	// stack that would exceed it is dropped back to the ground instead of
	// silently vanishing or growing the bag without limit.
	InventoryCapacity int
}

// DefaultConfig returns the reference action-cost tuning.
func DefaultConfig() Config {
	return Config{
		RestCost:          50,
		AttackCost:        100,
		SkillCost:         120,
		UseItemCost:       60,
		LootCost:          40,
		HarvestCost:       80,
		BaseMoveCost:      100,
		ReferenceSpd:      100,
		InventoryCapacity: 20,
	}
}

// Resolve sorts proposals by (actor_next_act_at, actor_id), validates and
// applies each in turn against w, and returns the number of proposals that
// were downgraded to Rest for having failed validation (observability
// only — the downgrade itself already happened by the time this returns).
func Resolve(w *sim.WorldState, log *events.Log, cfg Config, proposals []sim.ActionProposal) int {
	ordered := append([]sim.ActionProposal(nil), proposals...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].ActorNextActAt != ordered[j].ActorNextActAt {
			return ordered[i].ActorNextActAt < ordered[j].ActorNextActAt
		}
		return ordered[i].ActorID < ordered[j].ActorID
	})

	downgraded := 0
	for _, p := range ordered {
		actor, ok := w.Entities[p.ActorID]
		if !ok || !actor.Alive {
			continue // the actor died earlier in this same batch
		}

		effective := p
		if !validate(w, actor, p) {
			effective = sim.RestProposal(p.ActorID, p.ActorNextActAt, "invalid proposal downgraded")
			downgraded++
		}

		apply(w, log, cfg, actor, effective)

		if effective.HasNewAIState {
			actor.AIState = effective.NewAIState
		}
	}
	return downgraded
}

// validate re-checks a proposal's preconditions against the live world,
// since the worker computed it against a snapshot that may already be
// stale relative to earlier proposals in this same batch.
func validate(w *sim.WorldState, actor *sim.Entity, p sim.ActionProposal) bool {
	switch p.Verb {
	case sim.VerbRest:
		return true

	case sim.VerbMove:
		if !p.Target.HasPos {
			return false
		}
		if actor.Pos.Manhattan(p.Target.Pos) > 1 {
			return false
		}
		if !w.Grid.IsWalkable(p.Target.Pos.X, p.Target.Pos.Y) {
			return false
		}
		for _, other := range w.Entities {
			if other.ID != actor.ID && other.Alive && other.Pos == p.Target.Pos {
				return false
			}
		}
		return true

	case sim.VerbAttack:
		if !p.Target.HasEntity {
			return false
		}
		target, ok := w.Entities[p.Target.EntityID]
		if !ok || !target.Alive {
			return false
		}
		if !w.Factions.IsHostile(actor.Faction, target.Faction) {
			return false
		}
		dist := actor.Pos.Manhattan(target.Pos)
		return float64(dist) <= maxFloat(actor.WeaponRange, 1)

	case sim.VerbUseSkill:
		if !p.Target.HasEntity && !p.Target.HasPos {
			return false
		}
		def, ok := w.Registry.Skill(p.Target.SkillID)
		if !ok {
			return false
		}
		idx := skillIndex(actor, p.Target.SkillID)
		if idx < 0 || actor.Skills[idx].CooldownRemaining > 0 {
			return false
		}
		if actor.Base.Stamina < def.StaminaCost {
			return false
		}
		if p.Target.HasEntity {
			target, ok := w.Entities[p.Target.EntityID]
			if !ok || !target.Alive {
				return false
			}
			dist := actor.Pos.Manhattan(target.Pos)
			if float64(dist) > def.Range {
				return false
			}
		}
		return true

	case sim.VerbUseItem:
		if actor.Inventory == nil {
			return false
		}
		return stackIndex(actor.Inventory.Bag, p.Target.ItemID) >= 0

	case sim.VerbLoot:
		return len(w.GroundItems[actor.Pos]) > 0

	case sim.VerbHarvest:
		if !p.Target.HasNode {
			return false
		}
		node, ok := w.Nodes[p.Target.NodeID]
		if !ok || node.Depleted() || node.CooldownRemaining > 0 {
			return false
		}
		return actor.Pos.Manhattan(node.Pos) <= 1

	default:
		return false
	}
}

func skillIndex(actor *sim.Entity, skillID string) int {
	for i, s := range actor.Skills {
		if s.SkillID == skillID {
			return i
		}
	}
	return -1
}

func stackIndex(bag []sim.ItemStack, itemID string) int {
	for i, st := range bag {
		if st.ItemID == itemID {
			return i
		}
	}
	return -1
}

func maxFloat(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

// rngHandleFor builds the deterministic RNG handle a resolver action uses
// for damage/crit/evade rolls, bound to the world seed and current tick.
func rngHandleFor(w *sim.WorldState) rngsvc.Handle {
	return rngsvc.NewHandle(w.Seed, w.Tick)
}
