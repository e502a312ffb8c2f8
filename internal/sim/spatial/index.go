// Package spatial provides a sparse bucketed spatial index from tile cell to
// entity ids, used for O(1)-amortized neighborhood queries. It is adapted
// from the teacher's dense SpatialGrid (internal/game/spatial/grid.go):
// where the teacher used a fixed-size row-major slice of cells sized for a
// bounded pixel canvas, this index uses a sparse map keyed by bucket
// coordinate because the simulation grid can be arbitrarily large and
// entities are sparse relative to it.
package spatial

// DefaultCellSize is the reference cell size; it is a tuning constant near
// the typical vision range and does not affect correctness or determinism.
const DefaultCellSize = 16

// cellKey packs a bucket coordinate into a single map key.
type cellKey struct{ cx, cy int }

// Index is a sparse hash from bucket coordinate to entity id lists. It is
// rebuilt every tick from current entity positions during Snapshot
// construction; it is purely an optimization and any consumer must treat
// QueryRadius results as a superset requiring an exact distance check.
type Index struct {
	cellSize int
	buckets  map[cellKey][]int64
}

// New creates an index with the given cell size (must be >= 1).
func New(cellSize int) *Index {
	if cellSize < 1 {
		cellSize = DefaultCellSize
	}
	return &Index{
		cellSize: cellSize,
		buckets:  make(map[cellKey][]int64, 256),
	}
}

// Reset clears the index for reuse across ticks without discarding the
// underlying bucket map (only the slices are truncated in place, keeping
// the backing arrays and avoiding a full map reallocation).
func (idx *Index) Reset() {
	for k, b := range idx.buckets {
		idx.buckets[k] = b[:0]
	}
}

func (idx *Index) cellFor(x, y int) cellKey {
	return cellKey{cx: floorDiv(x, idx.cellSize), cy: floorDiv(y, idx.cellSize)}
}

// CellFor returns the bucket coordinate for a grid position, exposed as the
// spec's `cell_for(pos)` operation.
func (idx *Index) CellFor(x, y int) (cx, cy int) {
	k := idx.cellFor(x, y)
	return k.cx, k.cy
}

// Insert adds an entity id at (x, y) to its bucket.
func (idx *Index) Insert(id int64, x, y int) {
	k := idx.cellFor(x, y)
	idx.buckets[k] = append(idx.buckets[k], id)
}

// QueryRadius returns all entity ids in cells overlapping the Manhattan
// radius r around (x, y). The result is a superset of the true radius
// query; callers must perform an exact distance check. The returned slice
// is owned by the caller (a fresh slice each call) since results typically
// outlive the next Reset within the same tick.
func (idx *Index) QueryRadius(x, y, r int) []int64 {
	if r < 0 {
		r = 0
	}
	minCX := floorDiv(x-r, idx.cellSize)
	maxCX := floorDiv(x+r, idx.cellSize)
	minCY := floorDiv(y-r, idx.cellSize)
	maxCY := floorDiv(y+r, idx.cellSize)

	var out []int64
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			out = append(out, idx.buckets[cellKey{cx: cx, cy: cy}]...)
		}
	}
	return out
}

// floorDiv performs integer division that rounds toward negative infinity,
// so negative coordinates bucket correctly instead of rounding toward zero.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
