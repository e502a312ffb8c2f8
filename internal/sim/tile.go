package sim

// Tile is the enumerated tag for a single grid cell. The set is fixed and
// closed; tiles are immutable after world generation for the purposes of
// the core (the core reads, never writes, the tile grid during ticks).
type Tile uint8

const (
	TileFloor Tile = iota
	TileWall
	TileWater
	TileTown
	TileCamp
	TileSanctuary
	TileForest
	TileDesert
	TileSwamp
	TileMountain
	TileRoad
	TileBridge
	TileRuins
	TileDungeonEntrance
	TileLava
)

// tileInfo holds the static properties derived from a Tile tag.
type tileInfo struct {
	walkable bool
	moveCost float64 // pathfinding weight; 1.0 is neutral
}

var tileTable = [...]tileInfo{
	TileFloor:           {walkable: true, moveCost: 1.0},
	TileWall:            {walkable: false, moveCost: 0},
	TileWater:           {walkable: false, moveCost: 0},
	TileTown:            {walkable: true, moveCost: 1.0},
	TileCamp:            {walkable: true, moveCost: 1.0},
	TileSanctuary:       {walkable: true, moveCost: 1.0},
	TileForest:          {walkable: true, moveCost: 1.4},
	TileDesert:          {walkable: true, moveCost: 1.2},
	TileSwamp:           {walkable: true, moveCost: 2.2},
	TileMountain:        {walkable: true, moveCost: 2.5},
	TileRoad:            {walkable: true, moveCost: 0.6},
	TileBridge:          {walkable: true, moveCost: 0.6},
	TileRuins:           {walkable: true, moveCost: 1.3},
	TileDungeonEntrance:  {walkable: true, moveCost: 1.0},
	TileLava:            {walkable: false, moveCost: 0},
}

// Walkable reports whether an entity may stand on this tile kind.
func (t Tile) Walkable() bool {
	if int(t) >= len(tileTable) {
		return false
	}
	return tileTable[t].walkable
}

// MoveCost returns the pathfinding weight used as edge cost by the
// terrain-weighted long-distance search and, after a step is chosen, to
// scale its NextActAt cost. Greedy short-hop movement ignores it and only
// checks Walkable. Lower is cheaper; Road/Bridge are cheapest, Swamp/
// Mountain are heaviest.
func (t Tile) MoveCost() float64 {
	if int(t) >= len(tileTable) {
		return 1.0
	}
	return tileTable[t].moveCost
}

// String implements fmt.Stringer for observability/event messages.
func (t Tile) String() string {
	switch t {
	case TileFloor:
		return "floor"
	case TileWall:
		return "wall"
	case TileWater:
		return "water"
	case TileTown:
		return "town"
	case TileCamp:
		return "camp"
	case TileSanctuary:
		return "sanctuary"
	case TileForest:
		return "forest"
	case TileDesert:
		return "desert"
	case TileSwamp:
		return "swamp"
	case TileMountain:
		return "mountain"
	case TileRoad:
		return "road"
	case TileBridge:
		return "bridge"
	case TileRuins:
		return "ruins"
	case TileDungeonEntrance:
		return "dungeon_entrance"
	case TileLava:
		return "lava"
	default:
		return "unknown"
	}
}

// Pos is an integer grid coordinate.
type Pos struct {
	X, Y int
}

// Manhattan returns the Manhattan distance between two positions.
func (p Pos) Manhattan(o Pos) int {
	dx := p.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - o.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Add returns p shifted by (dx, dy).
func (p Pos) Add(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}
