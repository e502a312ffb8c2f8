package sim

// BuildingKind enumerates the static building types a ReturnTo/Visit
// handler can interact with.
type BuildingKind int

const (
	BuildingShop BuildingKind = iota
	BuildingBlacksmith
	BuildingGuild
	BuildingClassHall
	BuildingInn
)

// Building is a static, immutable-after-generation structure entities can
// walk to and transact with.
type Building struct {
	ID   int64
	Kind BuildingKind
	Pos  Pos
}

// Camp is a hostile faction's anchor position, used as a leash/return
// target and a Flee destination for non-hero entities.
type Camp struct {
	ID  int64
	Pos Pos
}

// ResourceNode is a harvestable node with a finite pool that regenerates
// after a cooldown once depleted.
type ResourceNode struct {
	ID                int64
	Pos               Pos
	YieldItemID       string
	Remaining         int
	MaxHarvests       int
	RespawnCooldown   int
	CooldownRemaining int
}

// Depleted reports whether the node currently has nothing left to harvest.
func (n *ResourceNode) Depleted() bool { return n.Remaining <= 0 }

// Chest is a static treasure container; its contents are produced once at
// world generation and consumed by Loot like ground items.
type Chest struct {
	ID    int64
	Pos   Pos
	Items []ItemStack
	Looted bool
}

// Region is a static named area, used for quest "explore" matching and
// observability; it has no gameplay effect beyond its bounds.
type Region struct {
	ID   int64
	Name string
	Min  Pos
	Max  Pos
}

// Contains reports whether pos lies within the region's bounding box.
func (r Region) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// GroundStack is one item stack lying on the ground at a cell, with the
// tick it was dropped (used only for observability, not gameplay).
type GroundStack struct {
	ItemID     string
	Count      int
	DroppedAt  int64
}
