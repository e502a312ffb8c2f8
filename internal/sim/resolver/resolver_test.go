package resolver

import (
	"testing"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/events"
)

func newTestWorld() *sim.WorldState {
	grid := sim.NewGrid(8, 8)
	return sim.NewWorldState(42, grid, sim.DefaultRegistry(), sim.DefaultFactionRegistry())
}

func addCombatant(w *sim.WorldState, pos sim.Pos, faction string, hp, atk, def int) *sim.Entity {
	e := sim.NewEntity(w.AllocEntityID(), "combatant", pos)
	e.Faction = faction
	e.WeaponRange = 1
	e.Base = sim.BaseStats{HP: hp, MaxHP: hp, Atk: atk, Def: def, Spd: 100, Stamina: 50, MaxStamina: 50}
	w.AddEntity(e)
	return e
}

// TestTwoEntitiesContestDoorway is spec.md §8 scenario 2: both A (lower
// id) and B propose Move to the same cell with identical NextActAt; the
// resolver's canonical sort (NextActAt, id) must let A win and downgrade
// B's proposal to Rest.
func TestTwoEntitiesContestDoorway(t *testing.T) {
	w := newTestWorld()
	a := addCombatant(w, sim.Pos{X: 3, Y: 4}, "hero", 40, 10, 1)
	b := addCombatant(w, sim.Pos{X: 5, Y: 4}, "hero", 40, 10, 1)
	a.NextActAt = 1.0
	b.NextActAt = 1.0

	dst := sim.Pos{X: 4, Y: 4}
	proposals := []sim.ActionProposal{
		{ActorID: b.ID, ActorNextActAt: 1.0, Verb: sim.VerbMove, Target: sim.Target{Pos: dst, HasPos: true}},
		{ActorID: a.ID, ActorNextActAt: 1.0, Verb: sim.VerbMove, Target: sim.Target{Pos: dst, HasPos: true}},
	}

	log := events.NewLog()
	downgraded := Resolve(w, log, DefaultConfig(), proposals)

	if a.Pos != dst {
		t.Fatalf("lower-id proposal (A) must win the contested cell, A is at %v", a.Pos)
	}
	if b.Pos == dst {
		t.Fatalf("B must not occupy the cell A already claimed, B is at %v", b.Pos)
	}
	if downgraded != 1 {
		t.Fatalf("expected exactly one proposal downgraded to Rest, got %d", downgraded)
	}
}

func TestResolveSortsByNextActAtBeforeID(t *testing.T) {
	w := newTestWorld()
	a := addCombatant(w, sim.Pos{X: 0, Y: 0}, "hero", 40, 10, 1)
	b := addCombatant(w, sim.Pos{X: 2, Y: 0}, "hero", 40, 10, 1)

	dst := sim.Pos{X: 1, Y: 0}
	// B has the earlier scheduling key even though its id is larger, so B
	// must win despite arriving later in the input slice order.
	proposals := []sim.ActionProposal{
		{ActorID: a.ID, ActorNextActAt: 5.0, Verb: sim.VerbMove, Target: sim.Target{Pos: dst, HasPos: true}},
		{ActorID: b.ID, ActorNextActAt: 1.0, Verb: sim.VerbMove, Target: sim.Target{Pos: dst, HasPos: true}},
	}

	Resolve(w, events.NewLog(), DefaultConfig(), proposals)

	if b.Pos != dst {
		t.Fatalf("the earlier NextActAt must win regardless of actor id, B is at %v", b.Pos)
	}
	if a.Pos == dst {
		t.Fatalf("A must be rejected since B already claimed the destination")
	}
}

func TestResolveDowngradesMoveIntoWall(t *testing.T) {
	w := newTestWorld()
	w.Grid.Set(1, 0, sim.TileWall)
	a := addCombatant(w, sim.Pos{X: 0, Y: 0}, "hero", 40, 10, 1)
	a.NextActAt = 0

	proposals := []sim.ActionProposal{
		{ActorID: a.ID, ActorNextActAt: 0, Verb: sim.VerbMove, Target: sim.Target{Pos: sim.Pos{X: 1, Y: 0}, HasPos: true}},
	}
	downgraded := Resolve(w, events.NewLog(), DefaultConfig(), proposals)

	if a.Pos != (sim.Pos{X: 0, Y: 0}) {
		t.Fatalf("a move into a wall must be rejected, actor moved to %v", a.Pos)
	}
	if downgraded != 1 {
		t.Fatalf("expected the invalid move to be downgraded, got %d downgrades", downgraded)
	}
}

func TestResolveDowngradesAttackOnDeadTarget(t *testing.T) {
	w := newTestWorld()
	attacker := addCombatant(w, sim.Pos{X: 0, Y: 0}, "hero", 40, 10, 1)
	target := addCombatant(w, sim.Pos{X: 1, Y: 0}, "hostile", 10, 3, 0)
	w.Factions.SetHostile("hero", "hostile")
	target.Alive = false
	delete(w.Entities, target.ID)

	proposals := []sim.ActionProposal{
		{ActorID: attacker.ID, ActorNextActAt: 0, Verb: sim.VerbAttack, Target: sim.Target{EntityID: target.ID, HasEntity: true}},
	}
	downgraded := Resolve(w, events.NewLog(), DefaultConfig(), proposals)
	if downgraded != 1 {
		t.Fatalf("attacking an already-dead target must downgrade to Rest, got %d downgrades", downgraded)
	}
}

// TestKillCascadeRejectsSecondAttackerOnDeadTarget is spec.md §4.7 step 5:
// if A's attack kills T, a later B->T proposal must see T dead and reject
// without retargeting.
func TestKillCascadeRejectsSecondAttackerOnDeadTarget(t *testing.T) {
	w := newTestWorld()
	w.Factions.SetHostile("hero", "hostile")
	a := addCombatant(w, sim.Pos{X: 0, Y: 0}, "hero", 40, 999, 0)
	b := addCombatant(w, sim.Pos{X: 2, Y: 0}, "hero", 40, 10, 0)
	target := addCombatant(w, sim.Pos{X: 1, Y: 0}, "hostile", 1, 1, 0)

	proposals := []sim.ActionProposal{
		{ActorID: a.ID, ActorNextActAt: 0, Verb: sim.VerbAttack, Target: sim.Target{EntityID: target.ID, HasEntity: true}},
		{ActorID: b.ID, ActorNextActAt: 1, Verb: sim.VerbAttack, Target: sim.Target{EntityID: target.ID, HasEntity: true}},
	}
	downgraded := Resolve(w, events.NewLog(), DefaultConfig(), proposals)

	if _, alive := w.Entities[target.ID]; alive {
		t.Fatalf("target should have died to A's overwhelming attack")
	}
	if downgraded != 1 {
		t.Fatalf("B's attack on the now-dead target must be downgraded, got %d downgrades", downgraded)
	}
}

func TestResolveHarvestRespectsNodeState(t *testing.T) {
	w := newTestWorld()
	actor := addCombatant(w, sim.Pos{X: 0, Y: 0}, "hero", 40, 10, 1)
	node := &sim.ResourceNode{ID: w.AllocNodeID(), Pos: sim.Pos{X: 0, Y: 0}, YieldItemID: "ore_iron", Remaining: 1, MaxHarvests: 1, RespawnCooldown: 10}
	w.Nodes[node.ID] = node

	proposals := []sim.ActionProposal{
		{ActorID: actor.ID, ActorNextActAt: 0, Verb: sim.VerbHarvest, Target: sim.Target{NodeID: node.ID, HasNode: true}},
	}
	Resolve(w, events.NewLog(), DefaultConfig(), proposals)

	if node.Remaining != 0 {
		t.Fatalf("expected node depleted to 0, got %d", node.Remaining)
	}
	if node.CooldownRemaining != node.RespawnCooldown {
		t.Fatalf("a depleted node must start its respawn cooldown, got %d", node.CooldownRemaining)
	}
	if actor.Inventory == nil || len(actor.Inventory.Bag) != 1 {
		t.Fatalf("harvested yield must land in the actor's bag, got %+v", actor.Inventory)
	}

	// A second harvest attempt this "tick" against the now-depleted,
	// cooling-down node must be rejected.
	downgraded := Resolve(w, events.NewLog(), DefaultConfig(), []sim.ActionProposal{
		{ActorID: actor.ID, ActorNextActAt: 0, Verb: sim.VerbHarvest, Target: sim.Target{NodeID: node.ID, HasNode: true}},
	})
	if downgraded != 1 {
		t.Fatalf("harvesting a depleted, cooling-down node must be rejected")
	}
}
