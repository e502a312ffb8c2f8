package engine

import (
	"fmt"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/events"
	"github.com/emberreach/worldsim/internal/sim/rngsvc"
)

// SpawnConfig tunes Phase 1's spawn generators.
type SpawnConfig struct {
	IntervalTicks int // how often each camp attempts a spawn
	MaxPerCamp    int // live hostiles tolerated per camp before spawning pauses
	SpawnTier     int
}

// DefaultSpawnConfig returns the reference spawn-generator tuning.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{IntervalTicks: 50, MaxPerCamp: 4, SpawnTier: 1}
}

// runGenerators is Phase 1 of the tick cycle (spec.md §4.9): deterministic
// world-driven entity spawning, run before the snapshot is built so new
// entities are visible to the same tick's worker dispatch. Spawns are keyed
// off (seed, camp id, tick) so two runs with the same seed spawn identical
// hostiles at identical ticks regardless of worker scheduling.
func runGenerators(w *sim.WorldState, cfg SpawnConfig, log *events.Log) []int64 {
	if cfg.IntervalTicks <= 0 {
		return nil
	}
	var spawned []int64
	for _, camp := range w.Camps {
		if w.Tick%int64(cfg.IntervalTicks) != int64(camp.ID)%int64(cfg.IntervalTicks) {
			continue
		}
		if countHostilesNear(w, camp.Pos, cfg.MaxPerCamp+4) >= cfg.MaxPerCamp {
			continue
		}
		spawned = append(spawned, spawnHostile(w, camp, cfg, log))
	}
	return spawned
}

func countHostilesNear(w *sim.WorldState, pos sim.Pos, radius int) int {
	n := 0
	for _, e := range w.Entities {
		if e.Alive && !e.IsHero && e.Pos.Manhattan(pos) <= radius {
			n++
		}
	}
	return n
}

func spawnHostile(w *sim.WorldState, camp sim.Camp, cfg SpawnConfig, log *events.Log) int64 {
	rng := rngsvc.NewHandle(w.Seed, w.Tick)
	dx := rng.Int(rngsvc.DomainSpawn, camp.ID, 0, -3, 4)
	dy := rng.Int(rngsvc.DomainSpawn, camp.ID, 1, -3, 4)
	pos := camp.Pos.Add(dx, dy)
	if !w.Grid.IsWalkable(pos.X, pos.Y) {
		pos = camp.Pos
	}

	id := w.AllocEntityID()
	e := sim.NewEntity(id, "hostile_grunt", pos)
	e.Faction = "hostile"
	e.Tier = cfg.SpawnTier
	e.HomePos = camp.Pos
	e.LeashRadius = 12
	e.VisionRange = 6
	e.WeaponRange = 1
	e.AIState = sim.StateGuardCamp
	e.Base = sim.BaseStats{
		HP: 30 + 10*cfg.SpawnTier, MaxHP: 30 + 10*cfg.SpawnTier,
		Atk: 6 + 2*cfg.SpawnTier, Def: 3 + cfg.SpawnTier, Spd: 100, Luck: 5,
		CritRate: 0.05, CritDmg: 1.5, Evasion: 0.05,
		Stamina: 50, MaxStamina: 50, Level: 1, XPToNext: 20,
	}
	w.AddEntity(e)

	if log != nil {
		log.Emit(w.Tick, events.CategorySpawn, fmt.Sprintf("spawned hostile %d near camp %d", id, camp.ID))
	}
	return id
}
