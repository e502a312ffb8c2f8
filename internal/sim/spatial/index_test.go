package spatial

import "testing"

func TestInsertAndQueryRadiusFindsInsertedID(t *testing.T) {
	idx := New(16)
	idx.Insert(1, 5, 5)
	idx.Insert(2, 100, 100)

	found := idx.QueryRadius(5, 5, 3)
	if !containsID(found, 1) {
		t.Fatalf("expected id 1 near (5,5), got %v", found)
	}
	if containsID(found, 2) {
		t.Fatalf("id 2 at (100,100) should not be in a small-radius query near (5,5), got %v", found)
	}
}

func TestQueryRadiusIsSupersetAcrossCellBoundary(t *testing.T) {
	idx := New(4)
	// Place an entity just across a bucket boundary from the query origin.
	idx.Insert(1, 4, 0)
	found := idx.QueryRadius(0, 0, 4)
	if !containsID(found, 1) {
		t.Fatalf("QueryRadius must return a superset spanning bucket boundaries, got %v", found)
	}
}

func TestCellForNegativeCoordinatesFloorDivide(t *testing.T) {
	idx := New(16)
	cx, cy := idx.CellFor(-1, -1)
	if cx != -1 || cy != -1 {
		t.Fatalf("CellFor(-1,-1) with cellSize 16 should floor-divide to (-1,-1), got (%d,%d)", cx, cy)
	}
	cx, cy = idx.CellFor(-16, -16)
	if cx != -1 || cy != -1 {
		t.Fatalf("CellFor(-16,-16) should be (-1,-1), got (%d,%d)", cx, cy)
	}
	cx, cy = idx.CellFor(-17, 0)
	if cx != -2 {
		t.Fatalf("CellFor(-17,_) should floor-divide to cx=-2, got %d", cx)
	}
}

func TestResetClearsBucketsButKeepsIndexUsable(t *testing.T) {
	idx := New(16)
	idx.Insert(1, 5, 5)
	idx.Reset()
	found := idx.QueryRadius(5, 5, 3)
	if len(found) != 0 {
		t.Fatalf("expected empty index after Reset, got %v", found)
	}
	idx.Insert(2, 5, 5)
	found = idx.QueryRadius(5, 5, 3)
	if !containsID(found, 2) {
		t.Fatalf("index must remain usable after Reset, got %v", found)
	}
}

func containsID(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
