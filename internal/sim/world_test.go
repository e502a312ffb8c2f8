package sim

import "testing"

func newTestWorld() *WorldState {
	grid := NewGrid(8, 8)
	return NewWorldState(42, grid, DefaultRegistry(), DefaultFactionRegistry())
}

func TestReadyActorsSortedByNextActAtThenID(t *testing.T) {
	w := newTestWorld()
	a := NewEntity(w.AllocEntityID(), "a", Pos{})
	a.NextActAt = 1.0
	b := NewEntity(w.AllocEntityID(), "b", Pos{})
	b.NextActAt = 1.0
	c := NewEntity(w.AllocEntityID(), "c", Pos{})
	c.NextActAt = 0.5
	w.AddEntity(a)
	w.AddEntity(b)
	w.AddEntity(c)

	ready := w.ReadyActors(10)
	if len(ready) != 3 {
		t.Fatalf("expected all 3 ready, got %v", ready)
	}
	// c (0.5) first, then a and b (both 1.0) ordered by id ascending.
	if ready[0] != c.ID {
		t.Fatalf("lowest NextActAt must be scheduled first, got order %v", ready)
	}
	if ready[1] != a.ID || ready[2] != b.ID {
		t.Fatalf("ties on NextActAt must break by ascending id, got order %v", ready)
	}
}

func TestReadyActorsExcludesFutureAndDead(t *testing.T) {
	w := newTestWorld()
	future := NewEntity(w.AllocEntityID(), "future", Pos{})
	future.NextActAt = 100
	w.AddEntity(future)

	dead := NewEntity(w.AllocEntityID(), "dead", Pos{})
	dead.NextActAt = 0
	dead.Alive = false
	w.AddEntity(dead)

	ready := w.ReadyActors(10)
	if len(ready) != 0 {
		t.Fatalf("neither a future-scheduled nor a dead entity should be ready, got %v", ready)
	}
}

func TestKillEntityHeroRespawns(t *testing.T) {
	w := newTestWorld()
	hero := NewEntity(w.AllocEntityID(), "hero", Pos{X: 5, Y: 5})
	hero.IsHero = true
	hero.HomePos = Pos{X: 0, Y: 0}
	hero.Base = BaseStats{HP: 0, MaxHP: 40}
	hero.Inventory = &Inventory{Bag: []ItemStack{{ItemID: "potion_minor", Count: 2}}}
	w.AddEntity(hero)

	w.KillEntity(hero)

	if _, ok := w.Entities[hero.ID]; !ok {
		t.Fatalf("a hero must never be removed from the world on death")
	}
	if hero.Base.HP != hero.Base.MaxHP {
		t.Fatalf("hero hp must reset to max on respawn, got %d/%d", hero.Base.HP, hero.Base.MaxHP)
	}
	if hero.Pos != hero.HomePos {
		t.Fatalf("hero must respawn at home_pos, got %v want %v", hero.Pos, hero.HomePos)
	}
	if hero.AIState != StateRestingInTown {
		t.Fatalf("hero ai_state must become RestingInTown on respawn, got %v", hero.AIState)
	}
	dropped := w.GroundItems[Pos{X: 5, Y: 5}]
	if len(dropped) != 1 || dropped[0].ItemID != "potion_minor" {
		t.Fatalf("hero's bag must be dropped at the death cell, got %v", dropped)
	}
	if len(hero.Inventory.Bag) != 0 {
		t.Fatalf("hero's bag must be emptied after the drop, got %+v", hero.Inventory.Bag)
	}
	if hero.NextActAt != HeroRespawnCooldown {
		t.Fatalf("hero's next_act_at must be pushed forward by the respawn cooldown, got %f", hero.NextActAt)
	}
}

func TestKillEntityNonHeroRemovedAndDropsLoot(t *testing.T) {
	w := newTestWorld()
	grunt := NewEntity(w.AllocEntityID(), "grunt", Pos{X: 2, Y: 2})
	grunt.Inventory = &Inventory{Bag: []ItemStack{{ItemID: "ore_iron", Count: 1}}}
	w.AddEntity(grunt)

	w.KillEntity(grunt)

	if _, ok := w.Entities[grunt.ID]; ok {
		t.Fatalf("a non-hero must be removed from the world map on death")
	}
	if grunt.Alive {
		t.Fatalf("a killed non-hero must have Alive=false")
	}
	dropped := w.GroundItems[Pos{X: 2, Y: 2}]
	if len(dropped) != 1 || dropped[0].ItemID != "ore_iron" {
		t.Fatalf("the dead entity's bag must convert to ground items at its last position, got %v", dropped)
	}
}

func TestCheckInvariantsPanicsOnNegativeHP(t *testing.T) {
	w := newTestWorld()
	e := NewEntity(w.AllocEntityID(), "broken", Pos{})
	e.Base = BaseStats{HP: -1, MaxHP: 10}
	w.AddEntity(e)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("CheckInvariants must panic on a negative-hp entity")
		}
	}()
	w.CheckInvariants()
}

func TestCheckInvariantsPassesOnCleanWorld(t *testing.T) {
	w := newTestWorld()
	e := NewEntity(w.AllocEntityID(), "fine", Pos{})
	e.Base = BaseStats{HP: 5, MaxHP: 10, Stamina: 3, MaxStamina: 10}
	w.AddEntity(e)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("CheckInvariants must not panic on a well-formed world: %v", r)
		}
	}()
	w.CheckInvariants()
}

func TestAllocEntityIDNeverReused(t *testing.T) {
	w := newTestWorld()
	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		id := w.AllocEntityID()
		if seen[id] {
			t.Fatalf("entity id %d allocated twice", id)
		}
		seen[id] = true
	}
}

func TestDropAndTakeGroundItems(t *testing.T) {
	w := newTestWorld()
	pos := Pos{X: 1, Y: 1}
	w.DropItems(pos, GroundStack{ItemID: "wood_oak", Count: 3})
	taken := w.TakeGroundItems(pos)
	if len(taken) != 1 || taken[0].ItemID != "wood_oak" {
		t.Fatalf("expected the dropped stack back, got %v", taken)
	}
	if again := w.TakeGroundItems(pos); len(again) != 0 {
		t.Fatalf("ground items must be cleared once taken, got %v", again)
	}
}
