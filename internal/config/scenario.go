package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emberreach/worldsim/internal/sim"
)

// ScenarioConfig is the declarative, YAML-backed description of a world to
// generate: seed, grid dimensions, static terrain features, and the initial
// entity/building/node placement. It stands in for the world-generation
// content pipeline the spec treats as external (spec.md §9 Non-goals),
// the way niceyeti-tabular's server package loads its run parameters from a
// YAML document rather than hand-wiring them in Go.
type ScenarioConfig struct {
	Seed   int64  `yaml:"seed"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	Camps     []ScenarioCamp     `yaml:"camps"`
	Buildings []ScenarioBuilding `yaml:"buildings"`
	Nodes     []ScenarioNode     `yaml:"nodes"`
	Heroes    []ScenarioHero     `yaml:"heroes"`
	Terrain   []ScenarioTerrain  `yaml:"terrain"`
}

// ScenarioCamp places a hostile faction anchor used for leashing and spawn
// scheduling (engine/generators.go).
type ScenarioCamp struct {
	ID int64 `yaml:"id"`
	X  int   `yaml:"x"`
	Y  int   `yaml:"y"`
}

// ScenarioBuilding places a static shop/blacksmith/guild/class-hall/inn an
// actor's Visit handlers walk to.
type ScenarioBuilding struct {
	ID   int64  `yaml:"id"`
	Kind string `yaml:"kind"` // shop, blacksmith, guild, class_hall, inn
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// ScenarioNode places a harvestable resource node.
type ScenarioNode struct {
	ID              int64  `yaml:"id"`
	X               int    `yaml:"x"`
	Y               int    `yaml:"y"`
	YieldItemID     string `yaml:"yield_item_id"`
	MaxHarvests     int    `yaml:"max_harvests"`
	RespawnCooldown int    `yaml:"respawn_cooldown"`
}

// ScenarioHero places a player-controlled hero entity at world start.
type ScenarioHero struct {
	ID       int64  `yaml:"id"`
	Kind     string `yaml:"kind"`
	ClassTag string `yaml:"class_tag"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Level    int    `yaml:"level"`
}

// ScenarioTerrain paints a rectangular region of the grid with a single
// tile kind; painted in array order, so later entries overwrite earlier
// ones where they overlap.
type ScenarioTerrain struct {
	Kind string `yaml:"kind"`
	MinX int    `yaml:"min_x"`
	MinY int    `yaml:"min_y"`
	MaxX int    `yaml:"max_x"`
	MaxY int    `yaml:"max_y"`
}

// DefaultScenario returns a small built-in scenario sufficient to exercise
// every engine subsystem, standing in for a loaded file when none is
// configured.
func DefaultScenario() ScenarioConfig {
	return ScenarioConfig{
		Seed: 42, Width: 64, Height: 64,
		Camps: []ScenarioCamp{
			{ID: 1, X: 50, Y: 50},
			{ID: 2, X: 10, Y: 54},
		},
		Buildings: []ScenarioBuilding{
			{ID: 1, Kind: "shop", X: 32, Y: 30},
			{ID: 2, Kind: "blacksmith", X: 34, Y: 30},
			{ID: 3, Kind: "guild", X: 36, Y: 30},
			{ID: 4, Kind: "class_hall", X: 38, Y: 30},
			{ID: 5, Kind: "inn", X: 40, Y: 30},
		},
		Nodes: []ScenarioNode{
			{ID: 1, X: 20, Y: 20, YieldItemID: "ore_iron", MaxHarvests: 3, RespawnCooldown: 100},
			{ID: 2, X: 22, Y: 20, YieldItemID: "herb_sage", MaxHarvests: 5, RespawnCooldown: 60},
		},
		Heroes: []ScenarioHero{
			{ID: 1, Kind: "hero", ClassTag: "warrior", X: 32, Y: 32, Level: 1},
		},
		Terrain: []ScenarioTerrain{
			{Kind: "town", MinX: 28, MinY: 28, MaxX: 44, MaxY: 34},
			{Kind: "camp", MinX: 48, MinY: 48, MaxX: 56, MaxY: 56},
			{Kind: "camp", MinX: 8, MinY: 50, MaxX: 14, MaxY: 58},
			{Kind: "forest", MinX: 0, MinY: 0, MaxX: 20, MaxY: 24},
		},
	}
}

// LoadScenario reads a ScenarioConfig from a YAML file at path. Callers
// fall back to DefaultScenario when no path is configured.
func LoadScenario(path string) (ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScenarioConfig{}, fmt.Errorf("reading scenario file %q: %w", path, err)
	}
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ScenarioConfig{}, fmt.Errorf("parsing scenario file %q: %w", path, err)
	}
	return cfg, nil
}

var terrainTiles = map[string]sim.Tile{
	"floor": sim.TileFloor, "wall": sim.TileWall, "water": sim.TileWater,
	"town": sim.TileTown, "camp": sim.TileCamp, "sanctuary": sim.TileSanctuary,
	"forest": sim.TileForest, "desert": sim.TileDesert, "swamp": sim.TileSwamp,
	"mountain": sim.TileMountain, "road": sim.TileRoad, "bridge": sim.TileBridge,
	"ruins": sim.TileRuins, "dungeon_entrance": sim.TileDungeonEntrance, "lava": sim.TileLava,
}

var buildingKinds = map[string]sim.BuildingKind{
	"shop": sim.BuildingShop, "blacksmith": sim.BuildingBlacksmith,
	"guild": sim.BuildingGuild, "class_hall": sim.BuildingClassHall, "inn": sim.BuildingInn,
}

// BuildWorld materializes a ScenarioConfig into a fresh WorldState: it
// paints the grid, places camps/buildings/nodes, and spawns the configured
// hero entities. reg and factions may be nil to use the engine defaults.
func BuildWorld(sc ScenarioConfig, reg *sim.Registry, factions *sim.FactionRegistry) (*sim.WorldState, error) {
	grid := sim.NewGrid(sc.Width, sc.Height)
	for _, t := range sc.Terrain {
		kind, ok := terrainTiles[t.Kind]
		if !ok {
			return nil, fmt.Errorf("unknown terrain kind %q", t.Kind)
		}
		for x := t.MinX; x <= t.MaxX; x++ {
			for y := t.MinY; y <= t.MaxY; y++ {
				grid.Set(x, y, kind)
			}
		}
	}

	w := sim.NewWorldState(sc.Seed, grid, reg, factions)

	for _, c := range sc.Camps {
		w.Camps = append(w.Camps, sim.Camp{ID: c.ID, Pos: sim.Pos{X: c.X, Y: c.Y}})
	}
	for _, b := range sc.Buildings {
		kind, ok := buildingKinds[b.Kind]
		if !ok {
			return nil, fmt.Errorf("unknown building kind %q", b.Kind)
		}
		w.Buildings = append(w.Buildings, sim.Building{ID: b.ID, Kind: kind, Pos: sim.Pos{X: b.X, Y: b.Y}})
	}
	var maxNodeID int64
	for _, n := range sc.Nodes {
		w.Nodes[n.ID] = &sim.ResourceNode{
			ID: n.ID, Pos: sim.Pos{X: n.X, Y: n.Y},
			YieldItemID: n.YieldItemID, Remaining: n.MaxHarvests,
			MaxHarvests: n.MaxHarvests, RespawnCooldown: n.RespawnCooldown,
		}
		if n.ID > maxNodeID {
			maxNodeID = n.ID
		}
	}
	for id := w.AllocNodeID(); id <= maxNodeID; id = w.AllocNodeID() {
	}
	var maxHeroID int64
	for _, h := range sc.Heroes {
		e := sim.NewEntity(h.ID, h.Kind, sim.Pos{X: h.X, Y: h.Y})
		e.IsHero = true
		e.Faction = "hero"
		e.ClassTag = h.ClassTag
		e.HomePos = e.Pos
		e.VisionRange = 8
		e.WeaponRange = 1
		e.AIState = sim.StateIdle
		e.Base = sim.BaseStats{
			HP: 100, MaxHP: 100, Atk: 12, Def: 6, Spd: 100, Luck: 8,
			CritRate: 0.08, CritDmg: 1.5, Evasion: 0.05,
			Stamina: 100, MaxStamina: 100, Level: h.Level, XPToNext: 20,
		}
		e.Inventory = &sim.Inventory{}
		w.AddEntity(e)
		if h.ID > maxHeroID {
			maxHeroID = h.ID
		}
	}
	// Scenario heroes bypass AllocEntityID, so fast-forward the allocator
	// past every explicitly assigned id before any runtime spawn uses it.
	for id := w.AllocEntityID(); id <= maxHeroID; id = w.AllocEntityID() {
	}

	return w, nil
}
