package sim

import (
	"github.com/emberreach/worldsim/internal/sim/spatial"
)

// Snapshot is the immutable, read-only view of WorldState built once per
// tick (spec.md §3, §9). Any mutation of a Snapshot or its contents by any
// reader is a contract violation; workers may hold a snapshot across any
// number of ticks without affecting correctness other than staleness. The
// grid is shared by reference (it never mutates at runtime); everything
// else is deep-copied so a reader can never observe a WorldState write in
// progress.
type Snapshot struct {
	Tick int64
	Seed int64

	Entities map[int64]Entity // value copies, not pointers

	Grid *Grid // shared, read-only handle

	Camps     []Camp
	Buildings []Building
	Nodes     []ResourceNode
	Chests    []Chest
	Regions   []Region

	GroundItems map[Pos][]GroundStack

	Registry *Registry
	Factions *FactionRegistry

	Index *spatial.Index // prebuilt bucket index over Entities' positions
}

// cloneEntity produces a value copy of e with every mutable reference type
// (maps, slices, pointers) independently cloned, so nothing a reader does
// to the returned value can reach back into WorldState.
func cloneEntity(e *Entity) Entity {
	cp := *e

	if e.Attributes != nil {
		cp.Attributes = make(map[string]int, len(e.Attributes))
		for k, v := range e.Attributes {
			cp.Attributes[k] = v
		}
	}
	if e.Caps != nil {
		cp.Caps = make(map[string]int, len(e.Caps))
		for k, v := range e.Caps {
			cp.Caps[k] = v
		}
	}
	if e.Skills != nil {
		cp.Skills = append([]SkillInstance(nil), e.Skills...)
	}
	if e.Effects != nil {
		cp.Effects = append([]StatusEffect(nil), e.Effects...)
		for i := range cp.Effects {
			if e.Effects[i].StatMultipliers != nil {
				m := make(map[string]float64, len(e.Effects[i].StatMultipliers))
				for k, v := range e.Effects[i].StatMultipliers {
					m[k] = v
				}
				cp.Effects[i].StatMultipliers = m
			}
		}
	}
	if e.Personality != nil {
		p := make(Personality, len(e.Personality))
		for k, v := range e.Personality {
			p[k] = v
		}
		cp.Personality = p
	}
	if e.Inventory != nil {
		inv := *e.Inventory
		inv.Bag = append([]ItemStack(nil), e.Inventory.Bag...)
		cp.Inventory = &inv
	}
	if e.HomeStorage != nil {
		cp.HomeStorage = append([]ItemStack(nil), e.HomeStorage...)
	}

	cp.Memory = Memory{
		TerrainMemory: make(map[Pos]Tile, len(e.Memory.TerrainMemory)),
		EntityMemory:  make(map[int64]EntityMemoryEntry, len(e.Memory.EntityMemory)),
	}
	for k, v := range e.Memory.TerrainMemory {
		cp.Memory.TerrainMemory[k] = v
	}
	for k, v := range e.Memory.EntityMemory {
		cp.Memory.EntityMemory[k] = v
	}

	if e.ThreatTable != nil {
		cp.ThreatTable = make(map[int64]float64, len(e.ThreatTable))
		for k, v := range e.ThreatTable {
			cp.ThreatTable[k] = v
		}
	}
	if e.CachedPath != nil {
		cp.CachedPath = append([]Pos(nil), e.CachedPath...)
	}
	if e.CachedPathTarget != nil {
		t := *e.CachedPathTarget
		cp.CachedPathTarget = &t
	}
	if e.Goals != nil {
		cp.Goals = append([]string(nil), e.Goals...)
	}
	if e.QuestProgress != nil {
		cp.QuestProgress = make(map[string]int, len(e.QuestProgress))
		for k, v := range e.QuestProgress {
			cp.QuestProgress[k] = v
		}
	}
	if e.CompletedQuests != nil {
		cp.CompletedQuests = make(map[string]bool, len(e.CompletedQuests))
		for k, v := range e.CompletedQuests {
			cp.CompletedQuests[k] = v
		}
	}

	return cp
}

// BuildSnapshot constructs a fresh Snapshot from the live WorldState. It is
// called once per tick at the start of Phase 2, before any proposals are
// computed, so workers always see a globally consistent view.
func BuildSnapshot(w *WorldState, cellSize int) *Snapshot {
	snap := &Snapshot{
		Tick:     w.Tick,
		Seed:     w.Seed,
		Entities: make(map[int64]Entity, len(w.Entities)),
		Grid:     w.Grid,
		Registry: w.Registry,
		Factions: w.Factions,
	}

	idx := spatial.New(cellSize)
	for id, e := range w.Entities {
		snap.Entities[id] = cloneEntity(e)
		if e.Alive {
			idx.Insert(id, e.Pos.X, e.Pos.Y)
		}
	}
	snap.Index = idx

	snap.Camps = append([]Camp(nil), w.Camps...)
	snap.Buildings = append([]Building(nil), w.Buildings...)
	snap.Regions = append([]Region(nil), w.Regions...)

	for _, n := range w.Nodes {
		snap.Nodes = append(snap.Nodes, *n)
	}
	for _, c := range w.Chests {
		snap.Chests = append(snap.Chests, *c)
	}

	snap.GroundItems = make(map[Pos][]GroundStack, len(w.GroundItems))
	for pos, stacks := range w.GroundItems {
		snap.GroundItems[pos] = append([]GroundStack(nil), stacks...)
	}

	return snap
}

// Entity looks up an entity by id in the snapshot, returning (value,
// found). Safe for any number of concurrent readers.
func (s *Snapshot) Entity(id int64) (Entity, bool) {
	e, ok := s.Entities[id]
	return e, ok
}
