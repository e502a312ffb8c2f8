package sim

import (
	"fmt"
	"sort"
)

// WorldState is the single authoritative source of truth, owned
// exclusively by the WorldLoop (spec.md §3, §5). Every other goroutine
// reads only Snapshots built from it. All mutation happens in Phase 3
// (conflict resolver) and Phase 4 (bookkeeping) of the tick cycle.
type WorldState struct {
	Tick int64
	Seed int64

	Entities map[int64]*Entity
	Grid     *Grid

	GroundItems map[Pos][]GroundStack

	Buildings []Building
	Camps     []Camp
	Nodes     map[int64]*ResourceNode
	Chests    map[int64]*Chest
	Regions   []Region

	Registry *Registry
	Factions *FactionRegistry

	nextEntityID int64
	nextNodeID   int64
}

// NewWorldState constructs an empty world over the given grid and seed.
// Id allocators start at 1 so 0 can be used as a sentinel "no id".
func NewWorldState(seed int64, grid *Grid, reg *Registry, factions *FactionRegistry) *WorldState {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if factions == nil {
		factions = DefaultFactionRegistry()
	}
	return &WorldState{
		Seed:         seed,
		Grid:         grid,
		Entities:     make(map[int64]*Entity),
		GroundItems:  make(map[Pos][]GroundStack),
		Nodes:        make(map[int64]*ResourceNode),
		Chests:       make(map[int64]*Chest),
		Registry:     reg,
		Factions:     factions,
		nextEntityID: 1,
		nextNodeID:   1,
	}
}

// AllocEntityID reserves and returns the next monotonic entity id.
func (w *WorldState) AllocEntityID() int64 {
	id := w.nextEntityID
	w.nextEntityID++
	return id
}

// AllocNodeID reserves and returns the next monotonic resource node id.
func (w *WorldState) AllocNodeID() int64 {
	id := w.nextNodeID
	w.nextNodeID++
	return id
}

// AddEntity inserts an already-id-assigned entity into the world.
func (w *WorldState) AddEntity(e *Entity) {
	w.Entities[e.ID] = e
}

// RemoveEntity deletes an entity from the world map (used for non-hero
// death cleanup in Phase 4c).
func (w *WorldState) RemoveEntity(id int64) {
	delete(w.Entities, id)
}

// DropItems appends stacks to the ground list at pos.
func (w *WorldState) DropItems(pos Pos, stacks ...GroundStack) {
	if len(stacks) == 0 {
		return
	}
	w.GroundItems[pos] = append(w.GroundItems[pos], stacks...)
}

// TakeGroundItems removes and returns all ground items at pos.
func (w *WorldState) TakeGroundItems(pos Pos) []GroundStack {
	items := w.GroundItems[pos]
	if len(items) == 0 {
		return nil
	}
	delete(w.GroundItems, pos)
	return items
}

// HeroRespawnCooldown is how far a hero's NextActAt is pushed forward on
// respawn (spec.md §3 Lifecycle "next_act_at pushed forward by the respawn
// cooldown"), expressed in the same rational time unit as every other
// action cost.
const HeroRespawnCooldown = 200

// KillEntity implements the two death paths (spec.md §3): a hero resets
// hp/position/ai_state, drops its bag at the death cell (equipment is kept),
// and has its next action deferred by HeroRespawnCooldown, but is never
// removed; anyone else drops their bag, equipped items, and home storage at
// the death cell and is deleted from the world map. Callers needing a Death
// event or killer-credited quest progress handle those around this call —
// KillEntity is the part common to every death, including ones with no
// attacking entity (e.g. a town aura).
func (w *WorldState) KillEntity(target *Entity) {
	if target.IsHero {
		deathPos := target.Pos
		var drops []GroundStack
		if target.Inventory != nil {
			for _, st := range target.Inventory.Bag {
				drops = append(drops, GroundStack{ItemID: st.ItemID, Count: st.Count, DroppedAt: w.Tick})
			}
			target.Inventory.Bag = nil
		}
		w.DropItems(deathPos, drops...)

		stats := Effective(target, w.Registry)
		target.Base.HP = stats.MaxHP
		target.Pos = target.HomePos
		target.AIState = StateRestingInTown
		target.EngagedTicks = 0
		target.CombatTargetID = 0
		target.NextActAt += HeroRespawnCooldown
		return
	}

	var drops []GroundStack
	if target.Inventory != nil {
		for _, st := range target.Inventory.Bag {
			drops = append(drops, GroundStack{ItemID: st.ItemID, Count: st.Count, DroppedAt: w.Tick})
		}
		for _, st := range target.Inventory.Equip {
			if st.ItemID != "" {
				count := st.Count
				if count < 1 {
					count = 1
				}
				drops = append(drops, GroundStack{ItemID: st.ItemID, Count: count, DroppedAt: w.Tick})
			}
		}
	}
	for _, st := range target.HomeStorage {
		drops = append(drops, GroundStack{ItemID: st.ItemID, Count: st.Count, DroppedAt: w.Tick})
	}
	w.DropItems(target.Pos, drops...)
	target.Alive = false
	w.RemoveEntity(target.ID)
}

// ReadyActors returns ids of entities with NextActAt <= the given tick
// time, sorted by (NextActAt, id) ascending — the canonical scheduling
// order used both for Phase 1 dispatch ordering and the resolver's total
// order (spec.md §4.7, §4.9).
func (w *WorldState) ReadyActors(asOf float64) []int64 {
	type readyEntry struct {
		id  int64
		at  float64
	}
	var ready []readyEntry
	for id, e := range w.Entities {
		if e.Alive && e.NextActAt <= asOf {
			ready = append(ready, readyEntry{id: id, at: e.NextActAt})
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].at != ready[j].at {
			return ready[i].at < ready[j].at
		}
		return ready[i].id < ready[j].id
	})
	out := make([]int64, len(ready))
	for i, r := range ready {
		out[i] = r.id
	}
	return out
}

// CheckInvariants validates the per-tick-boundary invariants in spec.md §8.
// A violation panics: the simulation cannot continue with a broken
// invariant without violating determinism (spec.md §7).
func (w *WorldState) CheckInvariants() {
	for id, e := range w.Entities {
		if id != e.ID {
			panic(fmt.Sprintf("invariant violation: entity map key %d does not match entity id %d", id, e.ID))
		}
		eff := Effective(e, w.Registry)
		if e.Base.HP < 0 || e.Base.HP > eff.MaxHP {
			panic(fmt.Sprintf("invariant violation: entity %d hp=%d out of [0,%d]", e.ID, e.Base.HP, eff.MaxHP))
		}
		if e.Base.Stamina < 0 || e.Base.Stamina > e.Base.MaxStamina {
			panic(fmt.Sprintf("invariant violation: entity %d stamina=%.2f out of [0,%.2f]", e.ID, e.Base.Stamina, e.Base.MaxStamina))
		}
		if e.Base.XP < 0 {
			panic(fmt.Sprintf("invariant violation: entity %d has negative xp", e.ID))
		}
		for _, s := range e.Skills {
			if s.CooldownRemaining < 0 {
				panic(fmt.Sprintf("invariant violation: entity %d skill %s cooldown<0", e.ID, s.SkillID))
			}
		}
		for _, eff := range e.Effects {
			if eff.RemainingTicks < -1 {
				panic(fmt.Sprintf("invariant violation: entity %d effect %s remaining_ticks<-1", e.ID, eff.Kind))
			}
		}
	}
}
