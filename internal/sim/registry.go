package sim

// The engine treats item/class/skill/recipe/quest tables as opaque
// read-only data registries (spec.md §1, §3): the exact numeric content is
// not core design. These structs carry just enough fields for the engine
// to drive transactions (equip bonuses, consumable effects, skill
// range/power, crafting costs, quest progress matching); a real deployment
// would source them from a content pipeline, not this package.

// ItemDef is the static definition of an item kind.
type ItemDef struct {
	ID            string
	Name          string
	Sellable      bool
	SellPrice     int
	BuyPrice      int
	IsEquippable  bool
	Slot          EquipSlot
	AtkBonus      int
	DefBonus      int
	MaxHPBonus    int
	MAtkBonus     int
	MDefBonus     int
	CritRateBonus float64
	IsConsumable  bool
	HealAmount    int
	PowerScore    int // heuristic used for auto-equip comparisons
}

// SkillDef is the static definition of a skill kind.
type SkillDef struct {
	ID           string
	Name         string
	Range        float64
	Radius       float64 // 0 = single target
	Power        float64
	Falloff      float64 // AoE damage falloff per tile from center
	StaminaCost  float64
	BaseCooldown int
	BuffDuration int                // 0 = no buff/debuff applied
	StatMods     map[string]float64 // applied as a StatusEffect if BuffDuration > 0
	TargetsAllies bool              // true = buff (self/ally-area), false = debuff (enemy/enemy-area)
}

// CooldownFor applies mastery-tier reduction to the skill's base cooldown.
func (s SkillDef) CooldownFor(mastery int) int {
	reduction := mastery / 10 // one tick per 10 mastery levels, floor at 1 tick
	cd := s.BaseCooldown - reduction
	if cd < 1 {
		cd = 1
	}
	return cd
}

// ClassDef is the static definition of a class tag.
type ClassDef struct {
	ID          string
	Name        string
	LearnedSkillIDs []string
}

// RecipeDef is a craftable recipe: required materials -> produced item.
type RecipeDef struct {
	ID           string
	OutputItemID string
	Materials    map[string]int // itemID -> count required
	RequiredTier int
}

// QuestObjectiveKind enumerates what a quest tracks.
type QuestObjectiveKind int

const (
	QuestKillFaction QuestObjectiveKind = iota
	QuestHarvestItem
	QuestLootItem
	QuestExploreRadius
)

// QuestDef is a minimal quest template.
type QuestDef struct {
	ID           string
	ObjectiveKind QuestObjectiveKind
	TargetTag    string // faction tag, item id, or unused for explore
	TargetCount  int
	RewardGold   int
	RewardXP     int
}

// Registry aggregates all opaque content tables. It is read-only once
// loaded and safe for concurrent reads from worker goroutines.
type Registry struct {
	items   map[string]ItemDef
	skills  map[string]SkillDef
	classes map[string]ClassDef
	recipes map[string]RecipeDef
	quests  map[string]QuestDef
}

// NewRegistry builds an empty registry; callers populate it via the
// Add* methods during world generation / startup.
func NewRegistry() *Registry {
	return &Registry{
		items:   make(map[string]ItemDef),
		skills:  make(map[string]SkillDef),
		classes: make(map[string]ClassDef),
		recipes: make(map[string]RecipeDef),
		quests:  make(map[string]QuestDef),
	}
}

func (r *Registry) AddItem(d ItemDef)     { r.items[d.ID] = d }
func (r *Registry) AddSkill(d SkillDef)   { r.skills[d.ID] = d }
func (r *Registry) AddClass(d ClassDef)   { r.classes[d.ID] = d }
func (r *Registry) AddRecipe(d RecipeDef) { r.recipes[d.ID] = d }
func (r *Registry) AddQuest(d QuestDef)   { r.quests[d.ID] = d }

func (r *Registry) Item(id string) (ItemDef, bool)     { d, ok := r.items[id]; return d, ok }
func (r *Registry) Skill(id string) (SkillDef, bool)    { d, ok := r.skills[id]; return d, ok }
func (r *Registry) Class(id string) (ClassDef, bool)    { d, ok := r.classes[id]; return d, ok }
func (r *Registry) Recipe(id string) (RecipeDef, bool)  { d, ok := r.recipes[id]; return d, ok }
func (r *Registry) Quest(id string) (QuestDef, bool)    { d, ok := r.quests[id]; return d, ok }

// Quests returns all quest definitions, for Phase 4j matching.
func (r *Registry) Quests() map[string]QuestDef { return r.quests }

// Recipes returns all recipe definitions, for the Craft goal scorer,
// economyGoal, and bookkeeping's blacksmith transaction.
func (r *Registry) Recipes() map[string]RecipeDef { return r.recipes }

// DefaultRegistry returns a small built-in content set sufficient to drive
// every economy/skill/quest transaction the engine specifies, standing in
// for the world-generation content pipeline the spec treats as external.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.AddItem(ItemDef{ID: "potion_minor", Name: "Minor Potion", Sellable: true, SellPrice: 5, BuyPrice: 15, IsConsumable: true, HealAmount: 25})
	r.AddItem(ItemDef{ID: "potion_major", Name: "Major Potion", Sellable: true, SellPrice: 12, BuyPrice: 35, IsConsumable: true, HealAmount: 60})
	r.AddItem(ItemDef{ID: "sword_iron", Name: "Iron Sword", Sellable: true, SellPrice: 20, BuyPrice: 60, IsEquippable: true, Slot: EquipWeapon, AtkBonus: 6, PowerScore: 6})
	r.AddItem(ItemDef{ID: "sword_steel", Name: "Steel Sword", Sellable: true, SellPrice: 40, BuyPrice: 120, IsEquippable: true, Slot: EquipWeapon, AtkBonus: 12, PowerScore: 12})
	r.AddItem(ItemDef{ID: "armor_leather", Name: "Leather Armor", Sellable: true, SellPrice: 15, BuyPrice: 45, IsEquippable: true, Slot: EquipArmor, DefBonus: 5, MaxHPBonus: 10, PowerScore: 7})
	r.AddItem(ItemDef{ID: "armor_plate", Name: "Plate Armor", Sellable: true, SellPrice: 35, BuyPrice: 100, IsEquippable: true, Slot: EquipArmor, DefBonus: 12, MaxHPBonus: 20, PowerScore: 16})
	r.AddItem(ItemDef{ID: "ring_focus", Name: "Focus Ring", Sellable: true, SellPrice: 18, BuyPrice: 50, IsEquippable: true, Slot: EquipTrinket, MAtkBonus: 8, PowerScore: 8})
	r.AddItem(ItemDef{ID: "ore_iron", Name: "Iron Ore", Sellable: true, SellPrice: 3, BuyPrice: 8})
	r.AddItem(ItemDef{ID: "wood_oak", Name: "Oak Wood", Sellable: true, SellPrice: 2, BuyPrice: 5})
	r.AddItem(ItemDef{ID: "herb_common", Name: "Common Herb", Sellable: true, SellPrice: 1, BuyPrice: 3})

	r.AddSkill(SkillDef{ID: "power_strike", Name: "Power Strike", Range: 1, Power: 1.6, StaminaCost: 8, BaseCooldown: 6})
	r.AddSkill(SkillDef{ID: "cleave", Name: "Cleave", Range: 1, Radius: 1.5, Power: 1.1, Falloff: 0.3, StaminaCost: 12, BaseCooldown: 8})
	r.AddSkill(SkillDef{ID: "fireball", Name: "Fireball", Range: 5, Radius: 2, Power: 1.4, Falloff: 0.4, StaminaCost: 15, BaseCooldown: 10})
	r.AddSkill(SkillDef{ID: "guard_stance", Name: "Guard Stance", Range: 0, Power: 0, StaminaCost: 6, BaseCooldown: 14, BuffDuration: 5, TargetsAllies: true, StatMods: map[string]float64{"def": 1.5}})
	r.AddSkill(SkillDef{ID: "weaken", Name: "Weaken", Range: 4, Power: 0, StaminaCost: 10, BaseCooldown: 12, BuffDuration: 6, TargetsAllies: false, StatMods: map[string]float64{"atk": 0.7}})

	r.AddClass(ClassDef{ID: "warrior", Name: "Warrior", LearnedSkillIDs: []string{"power_strike", "cleave", "guard_stance"}})
	r.AddClass(ClassDef{ID: "mage", Name: "Mage", LearnedSkillIDs: []string{"fireball", "weaken"}})

	r.AddRecipe(RecipeDef{ID: "forge_sword_steel", OutputItemID: "sword_steel", Materials: map[string]int{"ore_iron": 3}, RequiredTier: 1})
	r.AddRecipe(RecipeDef{ID: "forge_armor_plate", OutputItemID: "armor_plate", Materials: map[string]int{"ore_iron": 5}, RequiredTier: 2})

	r.AddQuest(QuestDef{ID: "cull_hostiles", ObjectiveKind: QuestKillFaction, TargetTag: "hostile", TargetCount: 5, RewardGold: 50, RewardXP: 100})
	r.AddQuest(QuestDef{ID: "gather_ore", ObjectiveKind: QuestHarvestItem, TargetTag: "ore_iron", TargetCount: 10, RewardGold: 30, RewardXP: 40})

	return r
}
