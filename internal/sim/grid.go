package sim

// Grid is a fixed-size, row-major 2D tile array. It is never mutated after
// world generation in the core's scope: the core reads it, never writes it,
// during ticks. Raw-coordinate accessors avoid allocating Pos values on the
// hot path, mirroring the teacher's SpatialGrid row-major cell layout.
type Grid struct {
	width, height int
	tiles         []Tile // tiles[y*width+x]
}

// NewGrid creates a width x height grid, all cells defaulted to TileFloor.
func NewGrid(width, height int) *Grid {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	tiles := make([]Tile, width*height)
	return &Grid{width: width, height: height, tiles: tiles}
}

// Width and Height expose the grid bounds.
func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x, y) lies within the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Get returns the tile at (x, y); out-of-bounds reads return TileWall so
// callers treat the world edge as impassable without a bounds branch.
func (g *Grid) Get(x, y int) Tile {
	if !g.InBounds(x, y) {
		return TileWall
	}
	return g.tiles[y*g.width+x]
}

// GetPos is the Pos-based convenience wrapper over Get.
func (g *Grid) GetPos(p Pos) Tile {
	return g.Get(p.X, p.Y)
}

// Set assigns a tile kind during world generation. Not called once the
// WorldLoop starts ticking.
func (g *Grid) Set(x, y int, t Tile) {
	if !g.InBounds(x, y) {
		return
	}
	g.tiles[y*g.width+x] = t
}

// IsWalkable reports whether an entity may stand on (x, y).
func (g *Grid) IsWalkable(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.tiles[y*g.width+x].Walkable()
}

// AdjacentToWall reports whether any of the four orthogonal neighbors of
// (x, y) is a wall tile. Cells outside the grid do not count as walls here.
func (g *Grid) AdjacentToWall(x, y int) bool {
	isWall := func(x, y int) bool { return g.InBounds(x, y) && g.tiles[y*g.width+x] == TileWall }
	return isWall(x-1, y) ||
		isWall(x+1, y) ||
		isWall(x, y-1) ||
		isWall(x, y+1)
}

// LineOfSight reports whether a straight line from (x0,y0) to (x1,y1) is
// unobstructed, using Bresenham's algorithm; it returns false the moment an
// intermediate cell is a wall. The endpoints themselves are not tested.
func (g *Grid) LineOfSight(x0, y0, x1, y1 int) bool {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		if x == x1 && y == y1 {
			return true
		}
		e2 := 2 * err
		nx, ny := x, y
		if e2 >= dy {
			err += dy
			nx = x + sx
		}
		if e2 <= dx {
			err += dx
			ny = y + sy
		}
		x, y = nx, ny
		if x == x1 && y == y1 {
			return true
		}
		if g.Get(x, y) == TileWall {
			return false
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
