package sim

import "testing"

func TestGridInBoundsAndWalkable(t *testing.T) {
	g := NewGrid(4, 4)
	g.Set(1, 1, TileWall)

	if !g.InBounds(0, 0) || g.InBounds(-1, 0) || g.InBounds(4, 0) {
		t.Fatalf("InBounds behaved incorrectly at the edges")
	}
	if g.IsWalkable(1, 1) {
		t.Fatalf("a wall tile must not be walkable")
	}
	if !g.IsWalkable(0, 0) {
		t.Fatalf("a default floor tile must be walkable")
	}
	// Out-of-bounds reads return TileWall so callers never branch on bounds.
	if g.Get(-1, -1) != TileWall {
		t.Fatalf("out-of-bounds Get must return TileWall, got %v", g.Get(-1, -1))
	}
	if g.IsWalkable(10, 10) {
		t.Fatalf("out-of-bounds cells must never be walkable")
	}
}

func TestGridLineOfSightBlockedByWall(t *testing.T) {
	g := NewGrid(5, 5)
	g.Set(2, 0, TileWall)

	if g.LineOfSight(0, 0, 4, 0) {
		t.Fatalf("a wall directly on the line must block line of sight")
	}
	if !g.LineOfSight(0, 1, 4, 1) {
		t.Fatalf("an unobstructed row must have clear line of sight")
	}
}

func TestGridAdjacentToWall(t *testing.T) {
	g := NewGrid(3, 3)
	g.Set(1, 0, TileWall)
	if !g.AdjacentToWall(1, 1) {
		t.Fatalf("(1,1) is orthogonally adjacent to the wall at (1,0)")
	}
	if g.AdjacentToWall(0, 2) {
		t.Fatalf("(0,2) is not adjacent to any wall")
	}
}

func TestTileMoveCostOrdering(t *testing.T) {
	if TileRoad.MoveCost() >= TileFloor.MoveCost() {
		t.Fatalf("road must be cheaper than plain floor")
	}
	if TileSwamp.MoveCost() <= TileFloor.MoveCost() {
		t.Fatalf("swamp must be costlier than plain floor")
	}
	if TileMountain.MoveCost() <= TileFloor.MoveCost() {
		t.Fatalf("mountain must be costlier than plain floor")
	}
}

func TestPosManhattan(t *testing.T) {
	a := Pos{X: 0, Y: 0}
	b := Pos{X: 3, Y: -4}
	if d := a.Manhattan(b); d != 7 {
		t.Fatalf("Manhattan((0,0),(3,-4)) = %d, want 7", d)
	}
}
