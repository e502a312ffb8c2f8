package sim

import "testing"

// TestSnapshotEntityIndependentOfWorldStateMutation is the core contract
// of the snapshot publication protocol (spec.md §3, §9): once built, a
// Snapshot must never be affected by subsequent mutation of the
// WorldState it was built from.
func TestSnapshotEntityIndependentOfWorldStateMutation(t *testing.T) {
	w := newTestWorld()
	e := NewEntity(w.AllocEntityID(), "hero", Pos{X: 1, Y: 1})
	e.Base = BaseStats{HP: 40, MaxHP: 40}
	e.Inventory = &Inventory{Bag: []ItemStack{{ItemID: "potion_minor", Count: 1}}}
	e.Memory.TerrainMemory[Pos{X: 0, Y: 0}] = TileFloor
	e.ThreatTable[99] = 5.0
	w.AddEntity(e)

	snap := BuildSnapshot(w, 16)
	before, ok := snap.Entity(e.ID)
	if !ok {
		t.Fatalf("expected entity %d in snapshot", e.ID)
	}

	// Mutate the live WorldState entity after the snapshot was built.
	e.Base.HP = 1
	e.Inventory.Bag[0].Count = 99
	e.Inventory.Bag = append(e.Inventory.Bag, ItemStack{ItemID: "sword_iron", Count: 1})
	e.Memory.TerrainMemory[Pos{X: 2, Y: 2}] = TileWall
	e.ThreatTable[99] = 1000

	after, _ := snap.Entity(e.ID)
	if after.Base.HP != before.Base.HP {
		t.Fatalf("snapshot hp mutated by later world write: before=%d after=%d", before.Base.HP, after.Base.HP)
	}
	if len(after.Inventory.Bag) != 1 || after.Inventory.Bag[0].Count != 1 {
		t.Fatalf("snapshot inventory must be independently cloned, got %+v", after.Inventory.Bag)
	}
	if _, ok := after.Memory.TerrainMemory[Pos{X: 2, Y: 2}]; ok {
		t.Fatalf("snapshot terrain memory must not see a later world write")
	}
	if after.ThreatTable[99] != 5.0 {
		t.Fatalf("snapshot threat table must not see a later world write, got %f", after.ThreatTable[99])
	}
}

func TestSnapshotExcludesDeadEntitiesFromSpatialIndex(t *testing.T) {
	w := newTestWorld()
	alive := NewEntity(w.AllocEntityID(), "alive", Pos{X: 3, Y: 3})
	alive.Alive = true
	dead := NewEntity(w.AllocEntityID(), "dead", Pos{X: 3, Y: 3})
	dead.Alive = false
	w.AddEntity(alive)
	w.AddEntity(dead)

	snap := BuildSnapshot(w, 16)
	ids := snap.Index.QueryRadius(3, 3, 0)
	foundDead := false
	for _, id := range ids {
		if id == dead.ID {
			foundDead = true
		}
	}
	if foundDead {
		t.Fatalf("a dead entity must not be inserted into the spatial index")
	}
	// Both still appear in the Entities map (readers may want last-known
	// state), just not in the index used for vision/neighborhood queries.
	if _, ok := snap.Entity(dead.ID); !ok {
		t.Fatalf("a dead entity should still be present in the entity map for observability")
	}
}

func TestSnapshotGridSharedByReference(t *testing.T) {
	w := newTestWorld()
	snap := BuildSnapshot(w, 16)
	if snap.Grid != w.Grid {
		t.Fatalf("the grid must be shared by reference, not deep-copied, since it never mutates at runtime")
	}
}
