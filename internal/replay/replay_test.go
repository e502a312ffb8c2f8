package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/engine"
	"github.com/emberreach/worldsim/internal/sim/events"
)

func buildCombatWorld(seed int64) *sim.WorldState {
	grid := sim.NewGrid(10, 10)
	w := sim.NewWorldState(seed, grid, sim.DefaultRegistry(), sim.DefaultFactionRegistry())
	w.Factions.SetHostile("hero", "hostile")

	hero := sim.NewEntity(w.AllocEntityID(), "hero", sim.Pos{X: 1, Y: 1})
	hero.IsHero = true
	hero.Faction = "hero"
	hero.HomePos = hero.Pos
	hero.VisionRange = 8
	hero.WeaponRange = 1
	hero.AIState = sim.StateIdle
	hero.Base = sim.BaseStats{HP: 40, MaxHP: 40, Atk: 10, Def: 1, Spd: 100, Stamina: 50, MaxStamina: 50}
	w.AddEntity(hero)

	goblin := sim.NewEntity(w.AllocEntityID(), "hostile_grunt", sim.Pos{X: 2, Y: 1})
	goblin.Faction = "hostile"
	goblin.HomePos = goblin.Pos
	goblin.VisionRange = 8
	goblin.WeaponRange = 1
	goblin.AIState = sim.StateGuardCamp
	goblin.Base = sim.BaseStats{HP: 15, MaxHP: 15, Atk: 3, Def: 0, Spd: 100, Stamina: 50, MaxStamina: 50}
	w.AddEntity(goblin)

	return w
}

func noSpawnConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Spawn.IntervalTicks = 0
	return cfg
}

func TestRecorderWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	trace := engine.TickTrace{
		Tick: 3,
		Proposals: []sim.ActionProposal{
			{ActorID: 1, ActorNextActAt: 3, Verb: sim.VerbAttack, Target: sim.Target{EntityID: 2, HasEntity: true}},
			{ActorID: 2, ActorNextActAt: 3, Verb: sim.VerbMove, Target: sim.Target{Pos: sim.Pos{X: 4, Y: 5}, HasPos: true}},
		},
		Spawned: []int64{9},
	}
	if err := rec.Record(trace); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "replay-*.jsonl"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected exactly one replay log file in %s, got %v (err=%v)", dir, matches, err)
	}

	records, err := ReadAll(matches[0])
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Tick != trace.Tick {
		t.Fatalf("tick mismatch: got %d want %d", got.Tick, trace.Tick)
	}
	if len(got.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(got.Actions))
	}
	if got.Actions[0].Verb != sim.VerbAttack || got.Actions[0].Target.EntityID != 2 {
		t.Fatalf("first action did not round-trip correctly: %+v", got.Actions[0])
	}
	if got.Actions[1].Verb != sim.VerbMove || got.Actions[1].Target.Pos != (sim.Pos{X: 4, Y: 5}) {
		t.Fatalf("second action did not round-trip correctly: %+v", got.Actions[1])
	}
	if len(got.Spawned) != 1 || got.Spawned[0] != 9 {
		t.Fatalf("spawned ids did not round-trip, got %v", got.Spawned)
	}
}

// TestReplayReproducesOriginalRunFinalState is spec.md §8's replay law: a
// recorded run, replayed from an identically-seeded fresh world, must
// reach the same final state without recomputing any AI decision.
func TestReplayReproducesOriginalRunFinalState(t *testing.T) {
	cfg := noSpawnConfig()
	world := buildCombatWorld(55)
	loop := engine.New(world, events.NewLog(), cfg)

	var traces []engine.TickTrace
	loop.Recorder = func(tr engine.TickTrace) { traces = append(traces, tr) }
	for i := 0; i < 15; i++ {
		loop.Tick(context.Background())
	}

	records := make([]TickRecord, len(traces))
	for i, tr := range traces {
		rec := TickRecord{Tick: tr.Tick, Spawned: tr.Spawned}
		rec.Actions = make([]ActionRecord, len(tr.Proposals))
		for j, p := range tr.Proposals {
			rec.Actions[j] = toActionRecord(p)
		}
		records[i] = rec
	}

	replayWorld := buildCombatWorld(55)
	replayLoop, err := Replay(replayWorld, cfg, records)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	origSnap := loop.Snapshot()
	replaySnap := replayLoop.Snapshot()
	if origSnap.Tick != replaySnap.Tick {
		t.Fatalf("tick mismatch after replay: orig=%d replay=%d", origSnap.Tick, replaySnap.Tick)
	}
	if len(origSnap.Entities) != len(replaySnap.Entities) {
		t.Fatalf("entity count mismatch after replay: orig=%d replay=%d", len(origSnap.Entities), len(replaySnap.Entities))
	}
	for id, oe := range origSnap.Entities {
		re, ok := replaySnap.Entities[id]
		if !ok {
			t.Fatalf("entity %d present in original run but missing from replay", id)
		}
		if oe.Pos != re.Pos || oe.Base.HP != re.Base.HP || oe.AIState != re.AIState {
			t.Fatalf("entity %d diverged between original run and replay: pos %v/%v hp %d/%d state %v/%v",
				id, oe.Pos, re.Pos, oe.Base.HP, re.Base.HP, oe.AIState, re.AIState)
		}
	}
}
