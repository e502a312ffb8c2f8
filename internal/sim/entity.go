package sim

// AIState is the closed tagged variant for an actor's current behavior
// state. Decision states hand control to the utility evaluator each tick;
// execution states run a fixed handler until their exit condition. Kept as
// a single enum (rather than a polymorphic interface) per spec.md §9: the
// state set is fixed, so a registration table keyed by this tag is
// preferred over dynamic dispatch.
type AIState uint8

const (
	StateIdle AIState = iota
	StateWander
	StateRestingInTown
	StateGuardCamp

	StateHunt
	StateCombat
	StateFlee
	StateLooting
	StateAlert
	StateHarvesting
	StateReturnToTown
	StateReturnToCamp
	StateVisitShop
	StateVisitBlacksmith
	StateVisitGuild
	StateVisitClassHall
	StateVisitInn
	StateVisitHome
)

// IsDecisionState reports whether the utility evaluator should run this
// tick, as opposed to a fixed state handler.
func (s AIState) IsDecisionState() bool {
	switch s {
	case StateIdle, StateWander, StateRestingInTown, StateGuardCamp:
		return true
	default:
		return false
	}
}

func (s AIState) String() string {
	names := [...]string{
		"Idle", "Wander", "RestingInTown", "GuardCamp",
		"Hunt", "Combat", "Flee", "Looting", "Alert", "Harvesting",
		"ReturnToTown", "ReturnToCamp", "VisitShop", "VisitBlacksmith",
		"VisitGuild", "VisitClassHall", "VisitInn", "VisitHome",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// EquipSlot enumerates the three equipment slots.
type EquipSlot int

const (
	EquipWeapon EquipSlot = iota
	EquipArmor
	EquipTrinket
	equipSlotCount
)

// BaseStats holds an entity's unmodified stat block. Effective stats are
// always derived on demand from base + equipment + effects; they are never
// stored (see stats.go).
type BaseStats struct {
	HP       int
	MaxHP    int
	Atk      int
	Def      int
	Spd      int
	Luck     int
	CritRate float64
	CritDmg  float64
	Evasion  float64
	MAtk     int
	MDef     int

	Stamina    float64
	MaxStamina float64

	Level    int
	XP       int
	XPToNext int
	Gold     int
}

// ItemStack is a minimal reference into the opaque item registry plus a
// count; the registry (registry.go) owns the actual power/heal/sell data.
type ItemStack struct {
	ItemID string
	Count  int
}

// SkillInstance is an actor's learned copy of a registry skill: mutable
// runtime state (cooldown, mastery, usage count) layered over the
// immutable SkillDef it references.
type SkillInstance struct {
	SkillID          string
	CooldownRemaining int
	Mastery           int
	TimesUsed         int
}

// StatusEffect is an active buff/debuff/DoT/HoT. remaining_ticks == -1
// means permanent.
type StatusEffect struct {
	Kind           string
	RemainingTicks int
	HPPerTick      int
	StatMultipliers map[string]float64 // multiplicative modifiers, e.g. "atk": 0.8
	Source         int64              // owner/attacker id, 0 if environmental
}

// Permanent reports whether the effect never expires on its own.
func (s StatusEffect) Permanent() bool { return s.RemainingTicks == -1 }

// Inventory is an entity's optional bag + equipment subsystem.
type Inventory struct {
	Bag   []ItemStack
	Equip [equipSlotCount]ItemStack // empty ItemID means unequipped
}

// EntityMemoryEntry is what an actor remembers about another entity last
// time it was observed.
type EntityMemoryEntry struct {
	LastPos    Pos
	LastKind   string
	LastHP     int
	LastMaxHP  int
	LastSeenAt int64 // tick
	VisibleNow bool
}

// Memory is owned by the entity and mutated exclusively by the WorldLoop in
// Phase 4. TerrainMemory is monotone: cells are added, never removed.
type Memory struct {
	TerrainMemory map[Pos]Tile
	EntityMemory  map[int64]EntityMemoryEntry
}

// NewMemory allocates empty memory maps.
func NewMemory() Memory {
	return Memory{
		TerrainMemory: make(map[Pos]Tile),
		EntityMemory:  make(map[int64]EntityMemoryEntry),
	}
}

// MemoryHorizonTicks is the age at which a dead/absent entity_memory entry
// is pruned at the tick boundary, per spec.md §3.
const MemoryHorizonTicks = 200

// Personality holds additive trait bonuses consumed by the utility
// evaluator's goal scorers (e.g. "aggression", "caution", "greed").
type Personality map[string]float64

// Entity is the single mutable actor/object record. It is uniquely
// identified by a monotonic 64-bit id never reused within a run. Shared
// references between entities (threat table, entity_memory) are always via
// id + lookup, never via direct pointer, so WorldState stays tree-shaped
// and trivially deep-copyable for snapshots (spec.md §9).
type Entity struct {
	ID      int64
	Kind    string
	Pos     Pos
	Faction string
	Tier    int
	Alive   bool
	IsHero  bool

	Base BaseStats

	Attributes map[string]int // optional attribute block
	Caps       map[string]int // optional stat caps

	ClassTag string
	Skills   []SkillInstance
	Effects  []StatusEffect

	Personality Personality

	Inventory    *Inventory // nil if the entity has no bag/equipment
	HomeStorage  []ItemStack

	AIState    AIState
	NextActAt  float64 // rational time unit; scheduling key

	Memory Memory

	EngagedTicks  int
	ThreatTable   map[int64]float64

	CachedPath       []Pos
	CachedPathTarget *Pos

	CombatTargetID int64
	LootProgress   int
	LootDuration   int

	HomePos      Pos
	VisionRange  int
	WeaponRange  float64
	LeashRadius  int

	Goals []string // human-readable goal list, recomputed in Phase 4l

	QuestProgress   map[string]int  // quest id -> progress count
	CompletedQuests map[string]bool
}

// NewEntity constructs an Entity with Memory, ThreatTable and Personality
// allocated empty (never nil); Attributes, Caps, QuestProgress and
// CompletedQuests are left nil for callers to allocate on first write.
func NewEntity(id int64, kind string, pos Pos) *Entity {
	return &Entity{
		ID:      id,
		Kind:    kind,
		Pos:     pos,
		Alive:   true,
		Memory:  NewMemory(),
		ThreatTable: make(map[int64]float64),
		Personality: make(Personality),
	}
}

// EffectiveVisionRange returns the actor's vision range, floored at 1.
func (e *Entity) EffectiveVisionRange() int {
	if e.VisionRange <= 0 {
		return 1
	}
	return e.VisionRange
}

// HasBagSpace reports whether the inventory (if any) has room for another
// stack. Entities without an Inventory never have bag space.
func (e *Entity) HasBagSpace(capacity int) bool {
	if e.Inventory == nil {
		return false
	}
	return len(e.Inventory.Bag) < capacity
}

// ReadySkills returns indices of skill instances with no cooldown
// remaining.
func (e *Entity) ReadySkills() []int {
	var out []int
	for i, s := range e.Skills {
		if s.CooldownRemaining <= 0 {
			out = append(out, i)
		}
	}
	return out
}
