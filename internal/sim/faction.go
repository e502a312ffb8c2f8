package sim

// FactionRegistry maps tile kinds to the faction that owns them
// territorially, and defines hostility between faction tags. It is built
// once at world generation and read-only during ticks.
type FactionRegistry struct {
	tileOwner map[Tile]string
	hostile   map[[2]string]bool
	alertRadius int
}

// NewFactionRegistry creates a registry with a default alert radius.
func NewFactionRegistry() *FactionRegistry {
	return &FactionRegistry{
		tileOwner:   make(map[Tile]string),
		hostile:     make(map[[2]string]bool),
		alertRadius: 6,
	}
}

// SetTileOwner declares that tile kind t is owned by faction.
func (f *FactionRegistry) SetTileOwner(t Tile, faction string) {
	f.tileOwner[t] = faction
}

// OwnerOf returns the owning faction of a tile kind, or "" if unowned.
func (f *FactionRegistry) OwnerOf(t Tile) string {
	return f.tileOwner[t]
}

// SetHostile declares a and b mutually hostile.
func (f *FactionRegistry) SetHostile(a, b string) {
	f.hostile[[2]string{a, b}] = true
	f.hostile[[2]string{b, a}] = true
}

// IsHostile reports whether two faction tags are hostile. A faction is
// never hostile to itself.
func (f *FactionRegistry) IsHostile(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	return f.hostile[[2]string{a, b}]
}

// AlertRadius is the territory broadcast radius for Phase 4b.
func (f *FactionRegistry) AlertRadius() int { return f.alertRadius }

// SetAlertRadius overrides the default alert radius.
func (f *FactionRegistry) SetAlertRadius(r int) { f.alertRadius = r }

// DefaultFactionRegistry wires up the two-faction hero/hostile split the
// reference scenarios (spec.md §8) assume: heroes own Town/Sanctuary, hostiles own
// Camp, and the two are mutually hostile, and the two are mutually
// hostile.
func DefaultFactionRegistry() *FactionRegistry {
	f := NewFactionRegistry()
	f.SetTileOwner(TileTown, "hero")
	f.SetTileOwner(TileSanctuary, "hero")
	f.SetTileOwner(TileCamp, "hostile")
	f.SetHostile("hero", "hostile")
	return f
}

// IsOnTerritoryOf reports whether pos is owned by faction, per the live
// grid.
func IsOnTerritoryOf(g *Grid, fr *FactionRegistry, pos Pos, faction string) bool {
	return fr.OwnerOf(g.GetPos(pos)) == faction
}

// IsOnEnemyTerritory reports whether e currently stands on territory owned
// by a faction hostile to e's own.
func IsOnEnemyTerritory(g *Grid, fr *FactionRegistry, e *Entity) bool {
	owner := fr.OwnerOf(g.GetPos(e.Pos))
	return owner != "" && fr.IsHostile(owner, e.Faction)
}

// IsOnHomeTerritory reports whether e currently stands on territory owned
// by its own faction.
func IsOnHomeTerritory(g *Grid, fr *FactionRegistry, e *Entity) bool {
	return fr.OwnerOf(g.GetPos(e.Pos)) == e.Faction
}
