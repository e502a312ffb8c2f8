// Package perception implements pure queries over a Snapshot (C6). Nothing
// here mutates the snapshot or the actor; every function takes values and
// returns values, so the AI brain (which runs on worker goroutines) can
// call this package without any synchronization.
package perception

import (
	"sort"

	"github.com/emberreach/worldsim/internal/sim"
)

// frontierSearchCap and frontierCandidateCap bound the frontier search so Wander's exploration policy
// never scans an unbounded area in one tick.
const (
	frontierSearchCap    = 400
	frontierCandidateCap = 24
)

// VisibleEntities returns ids of alive entities within actor's effective
// vision range (Manhattan distance), bounded by the spatial index rather
// than a full entity scan.
func VisibleEntities(actor sim.Entity, snap *sim.Snapshot) []int64 {
	r := actor.EffectiveVisionRange()
	candidates := snap.Index.QueryRadius(actor.Pos.X, actor.Pos.Y, r)

	seen := make(map[int64]bool, len(candidates))
	var out []int64
	for _, id := range candidates {
		if id == actor.ID || seen[id] {
			continue
		}
		seen[id] = true
		e, ok := snap.Entities[id]
		if !ok || !e.Alive {
			continue
		}
		if actor.Pos.Manhattan(e.Pos) <= r {
			out = append(out, id)
		}
	}
	return out
}

// NearestEnemy returns the closest hostile id among visible, or (0, false)
// if none. Ties are broken by smallest id.
func NearestEnemy(actor sim.Entity, visible []int64, snap *sim.Snapshot) (int64, bool) {
	best := int64(0)
	bestDist := int(1 << 30)
	found := false
	for _, id := range visible {
		e, ok := snap.Entities[id]
		if !ok || !snap.Factions.IsHostile(actor.Faction, e.Faction) {
			continue
		}
		d := actor.Pos.Manhattan(e.Pos)
		if d < bestDist || (d == bestDist && id < best) {
			best, bestDist, found = id, d, true
		}
	}
	return best, found
}

// HighestThreatEnemy returns the argmax over actor's ThreatTable restricted
// to visible hostiles, falling back to NearestEnemy when the table is
// empty (or none of its entries are currently visible hostiles).
func HighestThreatEnemy(actor sim.Entity, visible []int64, snap *sim.Snapshot) (int64, bool) {
	visibleSet := make(map[int64]bool, len(visible))
	for _, id := range visible {
		visibleSet[id] = true
	}

	best := int64(0)
	bestThreat := -1.0
	found := false
	for id, threat := range actor.ThreatTable {
		if !visibleSet[id] {
			continue
		}
		e, ok := snap.Entities[id]
		if !ok || !snap.Factions.IsHostile(actor.Faction, e.Faction) {
			continue
		}
		if threat > bestThreat || (threat == bestThreat && id < best) {
			best, bestThreat, found = id, threat, true
		}
	}
	if !found {
		return NearestEnemy(actor, visible, snap)
	}
	return best, true
}

// NearestAlly returns the closest non-hostile, non-self id among visible.
func NearestAlly(actor sim.Entity, visible []int64, snap *sim.Snapshot) (int64, bool) {
	best := int64(0)
	bestDist := int(1 << 30)
	found := false
	for _, id := range visible {
		e, ok := snap.Entities[id]
		if !ok || snap.Factions.IsHostile(actor.Faction, e.Faction) {
			continue
		}
		d := actor.Pos.Manhattan(e.Pos)
		if d < bestDist || (d == bestDist && id < best) {
			best, bestDist, found = id, d, true
		}
	}
	return best, found
}

// GroundLootNearby returns cells with ground items within radius of actor,
// nearest first.
func GroundLootNearby(actor sim.Entity, snap *sim.Snapshot, radius int) []sim.Pos {
	var out []sim.Pos
	for pos, stacks := range snap.GroundItems {
		if len(stacks) == 0 {
			continue
		}
		if actor.Pos.Manhattan(pos) <= radius {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := actor.Pos.Manhattan(out[i])
		dj := actor.Pos.Manhattan(out[j])
		if di != dj {
			return di < dj
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// NearestCamp returns the closest camp anchor position to actor.
func NearestCamp(actor sim.Entity, snap *sim.Snapshot) (sim.Pos, bool) {
	if len(snap.Camps) == 0 {
		return sim.Pos{}, false
	}
	best := snap.Camps[0]
	bestDist := actor.Pos.Manhattan(best.Pos)
	for _, c := range snap.Camps[1:] {
		d := actor.Pos.Manhattan(c.Pos)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best.Pos, true
}

// FindFrontierTarget returns the nearest unexplored cell adjacent to an
// explored cell — "explored" meaning present in actor's terrain memory.
// The search is a bounded BFS outward from actor's position; it early-exits
// once frontierCandidateCap candidates are found or frontierSearchCap
// cells have been visited, so Wander never scans unboundedly.
func FindFrontierTarget(actor sim.Entity, snap *sim.Snapshot) (sim.Pos, bool) {
	type queued struct {
		pos   sim.Pos
		depth int
	}

	visited := make(map[sim.Pos]bool, frontierSearchCap)
	queue := []queued{{pos: actor.Pos, depth: 0}}
	visited[actor.Pos] = true

	var candidates []sim.Pos
	scanned := 0

	for len(queue) > 0 && scanned < frontierSearchCap && len(candidates) < frontierCandidateCap {
		cur := queue[0]
		queue = queue[1:]
		scanned++

		neighbors := [4]sim.Pos{
			cur.pos.Add(1, 0), cur.pos.Add(-1, 0),
			cur.pos.Add(0, 1), cur.pos.Add(0, -1),
		}
		for _, n := range neighbors {
			if visited[n] || !snap.Grid.InBounds(n.X, n.Y) {
				continue
			}
			visited[n] = true

			_, explored := actor.Memory.TerrainMemory[n]
			if !explored {
				// n itself is unexplored; it's a frontier cell if the cell we
				// reached it from (cur.pos) is explored (or is the actor's
				// own position, which counts as explored ground).
				_, curExplored := actor.Memory.TerrainMemory[cur.pos]
				if curExplored || cur.pos == actor.Pos {
					if snap.Grid.IsWalkable(n.X, n.Y) {
						candidates = append(candidates, n)
					}
					continue
				}
			}
			if snap.Grid.IsWalkable(n.X, n.Y) {
				queue = append(queue, queued{pos: n, depth: cur.depth + 1})
			}
		}
	}

	if len(candidates) == 0 {
		return sim.Pos{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		di := actor.Pos.Manhattan(candidates[i])
		dj := actor.Pos.Manhattan(candidates[j])
		if di != dj {
			return di < dj
		}
		if candidates[i].X != candidates[j].X {
			return candidates[i].X < candidates[j].X
		}
		return candidates[i].Y < candidates[j].Y
	})
	return candidates[0], true
}

// IsOnEnemyTerritory reports whether actor currently stands on territory
// owned by a faction hostile to its own.
func IsOnEnemyTerritory(actor sim.Entity, snap *sim.Snapshot) bool {
	owner := snap.Factions.OwnerOf(snap.Grid.GetPos(actor.Pos))
	return owner != "" && snap.Factions.IsHostile(owner, actor.Faction)
}

// IsOnHomeTerritory reports whether actor currently stands on territory
// owned by its own faction.
func IsOnHomeTerritory(actor sim.Entity, snap *sim.Snapshot) bool {
	return snap.Factions.OwnerOf(snap.Grid.GetPos(actor.Pos)) == actor.Faction
}
