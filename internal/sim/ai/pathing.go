package ai

import (
	"container/heap"

	"github.com/emberreach/worldsim/internal/sim"
)

// NextStep returns the single orthogonal step the actor should take this
// tick to make progress from its current position toward dst. Move
// proposals always carry a single adjacent cell, never the final
// destination (spec.md §4.8): the resolver only ever validates and applies
// one step, so all path planning lives here in the brain.
//
// Short hops use a greedy step along the larger-delta axis, falling back to
// the perpendicular axis (cheap, and
// sufficient in open terrain); anything farther falls back to a
// terrain-weighted search bounded by Cfg.AStarNodeCap, reusing the actor's
// cached path when it still targets the same destination.
func NextStep(ctx Context, dst sim.Pos) (sim.Pos, bool) {
	src := ctx.Actor.Pos
	if src == dst {
		return src, false
	}

	if ctx.Actor.CachedPathTarget != nil && *ctx.Actor.CachedPathTarget == dst && len(ctx.Actor.CachedPath) > 0 {
		return ctx.Actor.CachedPath[0], true
	}

	if src.Manhattan(dst) <= ctx.Cfg.GreedyMoveMaxDist {
		if step, ok := greedyStep(ctx.Snap.Grid, src, dst); ok {
			return step, true
		}
	}

	path, ok := bfsPath(ctx.Snap.Grid, src, dst, ctx.Cfg.AStarNodeCap)
	if !ok || len(path) == 0 {
		return greedyStep(ctx.Snap.Grid, src, dst)
	}
	return path[0], true
}

// greedyStep tries the axis with the larger delta first, falling back to
// the other axis, then to staying put if both are blocked.
func greedyStep(g *sim.Grid, src, dst sim.Pos) (sim.Pos, bool) {
	dx := dst.X - src.X
	dy := dst.Y - src.Y

	tryX := func() (sim.Pos, bool) {
		if dx == 0 {
			return sim.Pos{}, false
		}
		step := src.Add(sign(dx), 0)
		return step, g.IsWalkable(step.X, step.Y)
	}
	tryY := func() (sim.Pos, bool) {
		if dy == 0 {
			return sim.Pos{}, false
		}
		step := src.Add(0, sign(dy))
		return step, g.IsWalkable(step.X, step.Y)
	}

	first, second := tryX, tryY
	if abs(dy) > abs(dx) {
		first, second = tryY, tryX
	}
	if step, ok := first(); ok {
		return step, true
	}
	if step, ok := second(); ok {
		return step, true
	}
	return src, false
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// bfsPath finds a least-cost walkable path from src to dst, expanding at
// most nodeCap cells. Edge weight is the entered tile's MoveCost
// (spec.md §4.8: "road/bridge cheapest, swamp/mountain heaviest"), so this
// is a Dijkstra search rather than a plain breadth-first one — a longer
// path over cheap terrain can beat a shorter path through a swamp. It
// returns the path excluding src but including dst.
func bfsPath(g *sim.Grid, src, dst sim.Pos, nodeCap int) ([]sim.Pos, bool) {
	if !g.IsWalkable(dst.X, dst.Y) {
		return nil, false
	}

	order := []bfsNode{{pos: src, prev: -1, cost: 0}}
	best := map[sim.Pos]int{src: 0} // index into order of the cheapest known entry
	pq := &posCostHeap{{node: 0, cost: 0}}
	visited := 0

	for pq.Len() > 0 && visited < nodeCap {
		top := heap.Pop(pq).(pqItem)
		i := top.node
		cur := order[i]
		if best[cur.pos] != i {
			continue // a cheaper entry for this cell already won
		}
		visited++
		if cur.pos == dst {
			return reconstruct(order, i), true
		}
		neighbors := [4]sim.Pos{
			cur.pos.Add(1, 0), cur.pos.Add(-1, 0),
			cur.pos.Add(0, 1), cur.pos.Add(0, -1),
		}
		for _, n := range neighbors {
			if !g.IsWalkable(n.X, n.Y) {
				continue
			}
			stepCost := int(g.GetPos(n).MoveCost() * 100)
			if stepCost < 1 {
				stepCost = 1
			}
			newCost := cur.cost + stepCost
			if existing, seen := best[n]; seen && order[existing].cost <= newCost {
				continue
			}
			idx := len(order)
			order = append(order, bfsNode{pos: n, prev: i, cost: newCost})
			best[n] = idx
			heap.Push(pq, pqItem{node: idx, cost: newCost})
		}
	}
	return nil, false
}

// bfsNode is one visited cell in bfsPath's search frontier, along with the
// cumulative terrain-weighted cost of reaching it from src.
type bfsNode struct {
	pos  sim.Pos
	prev int // index into the visited order, -1 for src
	cost int
}

// pqItem is one entry in posCostHeap: an index into bfsPath's order slice,
// ordered by cumulative cost.
type pqItem struct {
	node int
	cost int
}

// posCostHeap is a container/heap min-heap of pqItem ordered by cost,
// giving bfsPath its Dijkstra frontier.
type posCostHeap []pqItem

func (h posCostHeap) Len() int            { return len(h) }
func (h posCostHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h posCostHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *posCostHeap) Push(x interface{}) { *h = append(*h, x.(pqItem)) }
func (h *posCostHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func reconstruct(order []bfsNode, end int) []sim.Pos {
	var rev []sim.Pos
	for i := end; i != -1; i = order[i].prev {
		rev = append(rev, order[i].pos)
	}
	// rev is dst..src; reverse and drop src.
	out := make([]sim.Pos, 0, len(rev)-1)
	for i := len(rev) - 2; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}
