package manager

import (
	"testing"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/engine"
	"github.com/emberreach/worldsim/internal/sim/events"
)

func testFactory(seed int64) WorldFactory {
	return func() (*sim.WorldState, error) {
		grid := sim.NewGrid(8, 8)
		w := sim.NewWorldState(seed, grid, sim.DefaultRegistry(), sim.DefaultFactionRegistry())
		hero := sim.NewEntity(w.AllocEntityID(), "hero", sim.Pos{X: 1, Y: 1})
		hero.IsHero = true
		hero.Faction = "hero"
		hero.HomePos = hero.Pos
		hero.Base = sim.BaseStats{HP: 40, MaxHP: 40, Atk: 10, Def: 1, Spd: 100}
		w.AddEntity(hero)
		return w, nil
	}
}

func noSpawnEngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Spawn.IntervalTicks = 0
	return cfg
}

func TestManagerStartsStoppedAndTransitionsToRunning(t *testing.T) {
	m := New(testFactory(1), noSpawnEngineConfig(), events.NewLog(), 20)
	if m.Status() != StatusStopped {
		t.Fatalf("a fresh manager must start Stopped, got %v", m.Status())
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start from Stopped must succeed, got %v", err)
	}
	if m.Status() != StatusRunning {
		t.Fatalf("expected Running after Start, got %v", m.Status())
	}
	if m.Snapshot() == nil {
		t.Fatalf("Start must build a world and publish an initial snapshot")
	}
	m.Shutdown()
	if m.Status() != StatusStopped {
		t.Fatalf("expected Stopped after Shutdown, got %v", m.Status())
	}
}

func TestStartTwiceIsInvalidCommand(t *testing.T) {
	m := New(testFactory(1), noSpawnEngineConfig(), events.NewLog(), 20)
	if err := m.Start(); err != nil {
		t.Fatalf("first Start must succeed: %v", err)
	}
	defer m.Shutdown()

	if err := m.Start(); err != ErrInvalidCommand {
		t.Fatalf("a second Start while already Running must return ErrInvalidCommand, got %v", err)
	}
}

func TestStepIsInvalidWhileRunning(t *testing.T) {
	m := New(testFactory(1), noSpawnEngineConfig(), events.NewLog(), 20)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Shutdown()

	if err := m.Step(); err != ErrInvalidCommand {
		t.Fatalf("Step while Running must be invalid, got %v", err)
	}
}

func TestResumeIsInvalidWhileStopped(t *testing.T) {
	m := New(testFactory(1), noSpawnEngineConfig(), events.NewLog(), 20)
	if err := m.Resume(); err != ErrInvalidCommand {
		t.Fatalf("Resume while Stopped must be invalid, got %v", err)
	}
}

func TestPauseResumeStepLifecycle(t *testing.T) {
	m := New(testFactory(1), noSpawnEngineConfig(), events.NewLog(), 20)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Pause(); err != nil {
		t.Fatalf("Pause from Running must succeed: %v", err)
	}
	if m.Status() != StatusPaused {
		t.Fatalf("expected Paused, got %v", m.Status())
	}

	before := m.Snapshot().Tick
	if err := m.Step(); err != nil {
		t.Fatalf("Step while Paused must succeed: %v", err)
	}
	after := m.Snapshot().Tick
	if after != before+1 {
		t.Fatalf("a single Step must advance exactly one tick: before=%d after=%d", before, after)
	}
	// The manager must still be Paused after a single Step, not Running.
	if m.Status() != StatusPaused {
		t.Fatalf("expected Paused after Step, got %v", m.Status())
	}

	if err := m.Resume(); err != nil {
		t.Fatalf("Resume from Paused must succeed: %v", err)
	}
	if m.Status() != StatusRunning {
		t.Fatalf("expected Running after Resume, got %v", m.Status())
	}
	m.Shutdown()
}

func TestResetProducesByteIdenticalInitialWorldsAcrossRepeatedCalls(t *testing.T) {
	m := New(testFactory(99), noSpawnEngineConfig(), events.NewLog(), 20)
	if err := m.Reset(); err != nil {
		t.Fatalf("first Reset: %v", err)
	}
	first := m.Snapshot()
	heroID := int64(-1)
	for id, e := range first.Entities {
		if e.IsHero {
			heroID = id
		}
	}
	if heroID < 0 {
		t.Fatalf("expected a hero entity in the reset world")
	}

	if err := m.Reset(); err != nil {
		t.Fatalf("second Reset: %v", err)
	}
	second := m.Snapshot()
	if len(first.Entities) != len(second.Entities) {
		t.Fatalf("repeated resets from the same factory must produce identically-sized worlds, got %d vs %d",
			len(first.Entities), len(second.Entities))
	}
	heroAfter, ok := second.Entity(heroID)
	if !ok {
		t.Fatalf("expected the same hero id to reappear after reset, since AllocEntityID restarts from a fresh WorldState")
	}
	firstHero, _ := first.Entity(heroID)
	if heroAfter.Pos != firstHero.Pos || heroAfter.Base.HP != firstHero.Base.HP {
		t.Fatalf("repeated resets must produce identical initial entity state")
	}
	if m.Status() != StatusPaused {
		t.Fatalf("Reset must leave the manager Paused, got %v", m.Status())
	}
}

func TestClearEventsEmptiesTheLog(t *testing.T) {
	log := events.NewLog()
	log.Emit(1, events.CategorySpawn, "test event")
	if len(log.Since(0)) == 0 {
		t.Fatalf("expected at least one event before clearing")
	}
	m := New(testFactory(1), noSpawnEngineConfig(), log, 20)
	m.ClearEvents()
	if len(m.EventsSince(0)) != 0 {
		t.Fatalf("ClearEvents must empty the log, got %v", m.EventsSince(0))
	}
}

func TestSetTPSNeverChangesLifecycleState(t *testing.T) {
	m := New(testFactory(1), noSpawnEngineConfig(), events.NewLog(), 20)
	m.SetTPS(60)
	if m.Status() != StatusStopped {
		t.Fatalf("SetTPS must never change lifecycle state on its own, got %v", m.Status())
	}
}
