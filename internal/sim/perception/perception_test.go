package perception

import (
	"testing"

	"github.com/emberreach/worldsim/internal/sim"
)

func buildSnapshot(t *testing.T, entities ...*sim.Entity) (*sim.Snapshot, *sim.WorldState) {
	t.Helper()
	grid := sim.NewGrid(20, 20)
	w := sim.NewWorldState(1, grid, sim.DefaultRegistry(), sim.DefaultFactionRegistry())
	w.Factions.SetHostile("hero", "hostile")
	for _, e := range entities {
		e.ID = w.AllocEntityID()
		w.AddEntity(e)
	}
	return sim.BuildSnapshot(w, 16), w
}

func TestVisibleEntitiesRespectsVisionRangeAndLiveness(t *testing.T) {
	actor := sim.NewEntity(0, "hero", sim.Pos{X: 0, Y: 0})
	actor.Faction = "hero"
	actor.VisionRange = 5
	near := sim.NewEntity(0, "hostile", sim.Pos{X: 3, Y: 0})
	near.Faction = "hostile"
	far := sim.NewEntity(0, "hostile", sim.Pos{X: 19, Y: 19})
	far.Faction = "hostile"
	dead := sim.NewEntity(0, "hostile", sim.Pos{X: 1, Y: 0})
	dead.Faction = "hostile"
	dead.Alive = false

	snap, w := buildSnapshot(t, actor, near, far, dead)
	actorVal, _ := snap.Entity(actor.ID)
	_ = w

	visible := VisibleEntities(actorVal, snap)
	if !contains(visible, near.ID) {
		t.Fatalf("expected the near entity to be visible, got %v", visible)
	}
	if contains(visible, far.ID) {
		t.Fatalf("an entity far outside vision range must not be visible, got %v", visible)
	}
	if contains(visible, dead.ID) {
		t.Fatalf("a dead entity must never be reported visible, got %v", visible)
	}
	if contains(visible, actor.ID) {
		t.Fatalf("an actor must not see itself in its own visible list")
	}
}

func TestNearestEnemyTieBreaksBySmallestID(t *testing.T) {
	actor := sim.NewEntity(0, "hero", sim.Pos{X: 0, Y: 0})
	actor.Faction = "hero"
	actor.VisionRange = 10
	// Two hostiles at equal distance; the lower id must win the tie.
	e1 := sim.NewEntity(0, "hostile", sim.Pos{X: 3, Y: 0})
	e1.Faction = "hostile"
	e2 := sim.NewEntity(0, "hostile", sim.Pos{X: 0, Y: 3})
	e2.Faction = "hostile"

	snap, _ := buildSnapshot(t, actor, e1, e2)
	actorVal, _ := snap.Entity(actor.ID)
	visible := VisibleEntities(actorVal, snap)

	id, found := NearestEnemy(actorVal, visible, snap)
	if !found {
		t.Fatalf("expected a nearest enemy to be found")
	}
	lowestID := e1.ID
	if e2.ID < lowestID {
		lowestID = e2.ID
	}
	if id != lowestID {
		t.Fatalf("equidistant hostiles must tie-break to the smallest id: got %d, want %d", id, lowestID)
	}
}

func TestHighestThreatEnemyFallsBackToNearestWhenTableEmpty(t *testing.T) {
	actor := sim.NewEntity(0, "hero", sim.Pos{X: 0, Y: 0})
	actor.Faction = "hero"
	actor.VisionRange = 10
	hostile := sim.NewEntity(0, "hostile", sim.Pos{X: 2, Y: 0})
	hostile.Faction = "hostile"

	snap, _ := buildSnapshot(t, actor, hostile)
	actorVal, _ := snap.Entity(actor.ID)
	visible := VisibleEntities(actorVal, snap)

	id, found := HighestThreatEnemy(actorVal, visible, snap)
	if !found || id != hostile.ID {
		t.Fatalf("with an empty threat table, HighestThreatEnemy must fall back to NearestEnemy; got id=%d found=%v", id, found)
	}
}

func TestIsOnEnemyTerritory(t *testing.T) {
	grid := sim.NewGrid(5, 5)
	grid.Set(2, 2, sim.TileCamp)
	w := sim.NewWorldState(1, grid, sim.DefaultRegistry(), sim.DefaultFactionRegistry())
	hero := sim.NewEntity(w.AllocEntityID(), "hero", sim.Pos{X: 2, Y: 2})
	hero.Faction = "hero"
	w.AddEntity(hero)
	snap := sim.BuildSnapshot(w, 16)
	heroVal, _ := snap.Entity(hero.ID)

	if !IsOnEnemyTerritory(heroVal, snap) {
		t.Fatalf("a hero standing on hostile-owned Camp tile must be on enemy territory")
	}
	if IsOnHomeTerritory(heroVal, snap) {
		t.Fatalf("a hero on Camp tile is not on its own faction's territory")
	}
}

func contains(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
