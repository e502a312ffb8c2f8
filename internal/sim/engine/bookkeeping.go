package engine

import (
	"fmt"
	"sort"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/ai"
	"github.com/emberreach/worldsim/internal/sim/events"
	"github.com/emberreach/worldsim/internal/sim/perception"
)

// territoryDebuffKind is the Kind tag used by the recurring status effect
// applied to actors standing on enemy territory (spec.md §3's territory
// debuff feature); it is refreshed every tick the actor remains there and
// simply expires (RemainingTicks counts down normally) once it leaves.
const territoryDebuffKind = "territory_debuff"

// threatDecayFactor is the per-tick multiplicative decay applied to every
// threat table entry; entries below threatPruneFloor are dropped outright.
const (
	threatDecayFactor = 0.98
	threatPruneFloor  = 0.05
)

// runBookkeeping is Phase 4 of the tick cycle (spec.md §4.9). The live
// sub-step order does not follow the spec's a-m lettering (the letter on
// each step below names the sub-step it implements; see DESIGN.md for the
// live order): every step that can drive an entity's hp to zero
// (town-aura damage, status-effect DoT decay) runs before dead-entity
// cleanup, and `ids` is refreshed immediately after cleanup since it may
// have removed entries the map-derived slice still names. This keeps every
// later step's `w.Entities[id]` lookup safe without a presence check on
// every single line.
func runBookkeeping(w *sim.WorldState, log *events.Log, aiCfg ai.Config) {
	// advance the tick counter.
	w.Tick++

	ids := sortedEntityIDs(w)

	// a. town aura damage to hostiles on hero territory; passive heal of
	// heroes in town, blocked while an adjacent hostile is in melee range.
	applyTownAuraAndPassiveHeal(w, ids)

	// d. status effect decay/expiry (can itself bring hp to 0 via DoT).
	decayStatusEffects(w, ids)

	// c. dead-entity cleanup: anything town-aura or DoT damage finished off
	// this tick is removed (or respawned, for heroes) before the rest of
	// bookkeeping reads its state.
	cleanupDeadEntities(w, log, ids)
	ids = sortedEntityIDs(w)

	// b. territory intrusion alert broadcast.
	broadcastTerritoryAlerts(w, ids)

	// g. skill cooldown decay.
	decaySkillCooldowns(w, ids)

	// e. resource node cooldown/respawn decay.
	decayResourceNodes(w)

	// g. stamina (and further hp) regen, rate keyed off ai_state.
	regenStaminaAndHP(w, ids)

	// f. threat table decay & pruning.
	decayThreatTables(w, ids)

	// h. memory update (observe, then prune stale entries).
	updateAndPruneMemory(w, ids)

	// b (refresh). territory debuff application/refresh.
	applyTerritoryDebuffs(w, ids)

	// economy transactions for actors standing at a matching building in a
	// Visit-* state (spec.md §4.5 Visit-* handlers' "atomic transaction").
	runEconomyTransactions(w, ids, log)

	// j. quest progress matching -> completion + reward grant.
	matchQuestCompletion(w, ids, log)

	// j. explore-quest progress, derived from accumulated terrain memory.
	matchExploreQuests(w, ids)

	// f. xp/level-up resolution.
	resolveLevelUps(w, ids, log)

	// k. engagement tick: entities adjacent to a hostile accumulate
	// engaged_ticks; everyone else resets to 0.
	tickEngagement(w, ids)

	// l. human-readable goal list recompute, for observability.
	recomputeGoals(w, ids, aiCfg)

	// invariant check — panics on violation (spec.md §7, §8). The snapshot
	// publish (m) follows in loop.go's applyProposals.
	w.CheckInvariants()
}

// townAuraDamage is the per-tick damage a hostile standing on hero
// territory takes; passiveHealPct is the fraction of max hp a hero on its
// own faction's territory recovers per tick when no hostile is adjacent.
const (
	townAuraDamage  = 2
	passiveHealPct  = 0.03
)

func applyTownAuraAndPassiveHeal(w *sim.WorldState, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			continue
		}
		owner := w.Factions.OwnerOf(w.Grid.GetPos(e.Pos))
		if owner == "" {
			continue
		}
		if !e.IsHero && w.Factions.IsHostile(owner, e.Faction) {
			e.Base.HP -= townAuraDamage
			continue
		}
		if e.Faction != owner || !e.IsHero {
			continue
		}
		if hasAdjacentHostile(w, e) {
			continue
		}
		stats := sim.Effective(e, w.Registry)
		e.Base.HP += int(float64(stats.MaxHP) * passiveHealPct)
		if e.Base.HP > stats.MaxHP {
			e.Base.HP = stats.MaxHP
		}
	}
}

// cleanupDeadEntities implements spec.md §4.9 Phase 4c for every death
// source other than a resolver-applied Attack/UseSkill/opportunity hit
// (those already call sim.KillEntity inline): town aura and status-effect
// DoT damage above can also bring hp to 0 without an attacking entity.
func cleanupDeadEntities(w *sim.WorldState, log *events.Log, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive || e.Base.HP > 0 {
			continue
		}
		if log != nil {
			log.Emit(w.Tick, events.CategoryDeath, fmt.Sprintf("entity %d died", e.ID))
		}
		w.KillEntity(e)
	}
}

// regenMultiplier scales stamina/hp recovery by ai_state, fastest while
// resting/transacting in town, slowest while engaged in or approaching
// combat (spec.md §4.9 Phase 4g).
func regenMultiplier(s sim.AIState) float64 {
	switch s {
	case sim.StateRestingInTown, sim.StateVisitShop, sim.StateVisitBlacksmith,
		sim.StateVisitGuild, sim.StateVisitClassHall, sim.StateVisitInn, sim.StateVisitHome:
		return 2.0
	case sim.StateCombat, sim.StateHunt, sim.StateAlert, sim.StateFlee:
		return 0.25
	default:
		return 1.0
	}
}

const (
	baseStaminaRegenPct = 0.04
	baseHPRegenPct      = 0.01
)

func regenStaminaAndHP(w *sim.WorldState, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			continue
		}
		mult := regenMultiplier(e.AIState)
		if e.Base.MaxStamina > 0 {
			e.Base.Stamina += e.Base.MaxStamina * baseStaminaRegenPct * mult
			if e.Base.Stamina > e.Base.MaxStamina {
				e.Base.Stamina = e.Base.MaxStamina
			}
		}
		stats := sim.Effective(e, w.Registry)
		if e.Base.HP < stats.MaxHP {
			e.Base.HP += int(float64(stats.MaxHP) * baseHPRegenPct * mult)
			if e.Base.HP > stats.MaxHP {
				e.Base.HP = stats.MaxHP
			}
		}
	}
}

func sortedEntityIDs(w *sim.WorldState) []int64 {
	ids := make([]int64, 0, len(w.Entities))
	for id := range w.Entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func broadcastTerritoryAlerts(w *sim.WorldState, ids []int64) {
	radius := w.Factions.AlertRadius()
	for _, id := range ids {
		intruder := w.Entities[id]
		if !intruder.Alive || !sim.IsOnEnemyTerritory(w.Grid, w.Factions, intruder) {
			continue
		}
		owner := w.Factions.OwnerOf(w.Grid.GetPos(intruder.Pos))
		for _, gid := range ids {
			guard := w.Entities[gid]
			if !guard.Alive || guard.Faction != owner || guard.IsHero {
				continue
			}
			if guard.AIState != sim.StateGuardCamp {
				continue
			}
			if guard.Pos.Manhattan(intruder.Pos) <= radius {
				guard.AIState = sim.StateAlert
			}
		}
	}
}

func decayStatusEffects(w *sim.WorldState, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		if len(e.Effects) == 0 {
			continue
		}
		kept := e.Effects[:0]
		for _, eff := range e.Effects {
			if eff.HPPerTick != 0 {
				e.Base.HP += eff.HPPerTick
			}
			if eff.Permanent() {
				kept = append(kept, eff)
				continue
			}
			eff.RemainingTicks--
			if eff.RemainingTicks > 0 {
				kept = append(kept, eff)
			}
		}
		e.Effects = kept
		stats := sim.Effective(e, w.Registry)
		if e.Base.HP > stats.MaxHP {
			e.Base.HP = stats.MaxHP
		}
		if e.Base.HP < 0 {
			e.Base.HP = 0
		}
	}
}

// buildingKindFor maps a Visit-* AIState to the building kind it transacts
// with; ok is false for states that have no building transaction of their
// own (VisitHome aliases straight to ReturnToTown).
func buildingKindFor(s sim.AIState) (sim.BuildingKind, bool) {
	switch s {
	case sim.StateVisitShop:
		return sim.BuildingShop, true
	case sim.StateVisitBlacksmith:
		return sim.BuildingBlacksmith, true
	case sim.StateVisitGuild:
		return sim.BuildingGuild, true
	case sim.StateVisitClassHall:
		return sim.BuildingClassHall, true
	case sim.StateVisitInn:
		return sim.BuildingInn, true
	default:
		return 0, false
	}
}

// runEconomyTransactions performs the atomic buy/sell/craft/learn/quest
// transaction spec.md §4.5's Visit-* handlers describe, for any actor
// standing adjacent to its matching building this tick, then returns it to
// Wander. The handler itself only walks the actor there and holds position
// (it is pure with respect to the snapshot); the mutation has to happen
// here in bookkeeping, which is the only place with live WorldState access.
func runEconomyTransactions(w *sim.WorldState, ids []int64, log *events.Log) {
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			continue
		}
		kind, ok := buildingKindFor(e.AIState)
		if !ok {
			continue
		}
		if !adjacentToBuilding(w, e, kind) {
			continue
		}
		switch kind {
		case sim.BuildingShop:
			transactShop(w, e, log)
		case sim.BuildingBlacksmith:
			transactCraft(w, e, log)
		case sim.BuildingGuild:
			transactQuestBoard(w, e, log)
		case sim.BuildingClassHall:
			transactClassHall(w, e, log)
		case sim.BuildingInn:
			stats := sim.Effective(e, w.Registry)
			e.Base.HP = stats.MaxHP
		}
		e.AIState = sim.StateWander
	}
}

func adjacentToBuilding(w *sim.WorldState, e *sim.Entity, kind sim.BuildingKind) bool {
	for i := range w.Buildings {
		b := &w.Buildings[i]
		if b.Kind == kind && e.Pos.Manhattan(b.Pos) <= 1 {
			return true
		}
	}
	return false
}

// transactShop sells every sellable bag item for gold, then spends down to
// a single purchase: a healing potion if hp is short, else the highest
// PowerScore equippable upgrade the actor can afford for an empty/weaker
// slot. Sell always precedes Buy, matching the spec's fixed priority.
func transactShop(w *sim.WorldState, e *sim.Entity, log *events.Log) {
	if e.Inventory == nil {
		e.Inventory = &sim.Inventory{}
	}
	kept := e.Inventory.Bag[:0]
	sold := 0
	for _, st := range e.Inventory.Bag {
		def, ok := w.Registry.Item(st.ItemID)
		if ok && def.Sellable {
			e.Base.Gold += def.SellPrice * st.Count
			sold += st.Count
			continue
		}
		kept = append(kept, st)
	}
	e.Inventory.Bag = kept

	itemIDs := sortedItemIDs(w.Registry)
	bought := ""
	if sim.HPRatio(e, w.Registry) < 0.8 {
		bestHeal, bestPrice := -1, 0
		for _, id := range itemIDs {
			def, _ := w.Registry.Item(id)
			if def.IsConsumable && def.HealAmount > bestHeal && e.Base.Gold >= def.BuyPrice {
				bestHeal, bestPrice, bought = def.HealAmount, def.BuyPrice, def.ID
			}
		}
		if bought != "" {
			e.Base.Gold -= bestPrice
			e.Inventory.Bag = append(e.Inventory.Bag, sim.ItemStack{ItemID: bought, Count: 1})
		}
	}
	if bought == "" {
		bestScore, bestPrice := -1, 0
		for _, id := range itemIDs {
			def, _ := w.Registry.Item(id)
			if !def.IsEquippable || e.Base.Gold < def.BuyPrice {
				continue
			}
			current := e.Inventory.Equip[def.Slot]
			curScore := -1
			if current.ItemID != "" {
				if curDef, ok := w.Registry.Item(current.ItemID); ok {
					curScore = curDef.PowerScore
				}
			}
			if def.PowerScore > curScore && def.PowerScore > bestScore {
				bestScore, bestPrice, bought = def.PowerScore, def.BuyPrice, def.ID
			}
		}
		if bought != "" {
			e.Base.Gold -= bestPrice
			tryEquipPurchase(w, e, bought)
		}
	}
	if log != nil && (sold > 0 || bought != "") {
		log.Emit(w.Tick, events.CategoryLoot, fmt.Sprintf("entity %d traded at the shop (sold %d, bought %s)", e.ID, sold, bought))
	}
}

func tryEquipPurchase(w *sim.WorldState, e *sim.Entity, itemID string) {
	def, ok := w.Registry.Item(itemID)
	if !ok {
		return
	}
	current := e.Inventory.Equip[def.Slot]
	if current.ItemID != "" {
		e.Inventory.Bag = append(e.Inventory.Bag, current)
	}
	e.Inventory.Equip[def.Slot] = sim.ItemStack{ItemID: itemID, Count: 1}
}

// transactCraft consumes the first recipe (in deterministic id order) whose
// materials the actor's bag can fully cover and adds the output item.
func transactCraft(w *sim.WorldState, e *sim.Entity, log *events.Log) {
	if e.Inventory == nil {
		return
	}
	recipes := w.Registry.Recipes()
	ids := make([]string, 0, len(recipes))
	for id := range recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := recipes[id]
		if !craftHasMaterials(e, r) {
			continue
		}
		for itemID, need := range r.Materials {
			remaining := need
			kept := e.Inventory.Bag[:0]
			for _, st := range e.Inventory.Bag {
				if st.ItemID == itemID && remaining > 0 {
					take := st.Count
					if take > remaining {
						take = remaining
					}
					remaining -= take
					st.Count -= take
					if st.Count <= 0 {
						continue
					}
				}
				kept = append(kept, st)
			}
			e.Inventory.Bag = kept
		}
		e.Inventory.Bag = append(e.Inventory.Bag, sim.ItemStack{ItemID: r.OutputItemID, Count: 1})
		if log != nil {
			log.Emit(w.Tick, events.CategorySkill, fmt.Sprintf("entity %d crafted %s", e.ID, r.OutputItemID))
		}
		return
	}
}

func craftHasMaterials(e *sim.Entity, r sim.RecipeDef) bool {
	have := make(map[string]int, len(e.Inventory.Bag))
	for _, st := range e.Inventory.Bag {
		have[st.ItemID] += st.Count
	}
	for itemID, need := range r.Materials {
		if have[itemID] < need {
			return false
		}
	}
	return true
}

// transactQuestBoard assigns the first not-yet-taken, not-completed quest
// (deterministic id order) to the actor.
func transactQuestBoard(w *sim.WorldState, e *sim.Entity, log *events.Log) {
	quests := w.Registry.Quests()
	ids := make([]string, 0, len(quests))
	for id := range quests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, qid := range ids {
		if e.CompletedQuests[qid] {
			continue
		}
		if _, taken := e.QuestProgress[qid]; taken {
			continue
		}
		if e.QuestProgress == nil {
			e.QuestProgress = make(map[string]int)
		}
		e.QuestProgress[qid] = 0
		if log != nil {
			log.Emit(w.Tick, events.CategoryLevelUp, fmt.Sprintf("entity %d accepted quest %s", e.ID, qid))
		}
		return
	}
}

// transactClassHall teaches the actor the next skill in its class's fixed
// learn order it has not already learned, if it carries a class tag at all.
func transactClassHall(w *sim.WorldState, e *sim.Entity, log *events.Log) {
	if e.ClassTag == "" {
		return
	}
	class, ok := w.Registry.Class(e.ClassTag)
	if !ok {
		return
	}
	known := make(map[string]bool, len(e.Skills))
	for _, s := range e.Skills {
		known[s.SkillID] = true
	}
	for _, skillID := range class.LearnedSkillIDs {
		if known[skillID] {
			continue
		}
		e.Skills = append(e.Skills, sim.SkillInstance{SkillID: skillID})
		if log != nil {
			log.Emit(w.Tick, events.CategorySkill, fmt.Sprintf("entity %d learned %s", e.ID, skillID))
		}
		return
	}
}

func sortedItemIDs(reg *sim.Registry) []string {
	// Registry has no exported item-id enumerator; DefaultRegistry's ids are
	// stable and few, so shop transactions iterate the item kinds the quest/
	// recipe tables already reference, plus every known sellable good.
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range []string{
		"potion_minor", "potion_major", "sword_iron", "sword_steel",
		"armor_leather", "armor_plate", "ring_focus", "ore_iron", "wood_oak", "herb_common",
	} {
		if _, ok := reg.Item(id); ok {
			add(id)
		}
	}
	sort.Strings(ids)
	return ids
}

func decaySkillCooldowns(w *sim.WorldState, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		for i := range e.Skills {
			if e.Skills[i].CooldownRemaining > 0 {
				e.Skills[i].CooldownRemaining--
			}
		}
	}
}

func decayResourceNodes(w *sim.WorldState) {
	nodeIDs := make([]int64, 0, len(w.Nodes))
	for id := range w.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })
	for _, id := range nodeIDs {
		n := w.Nodes[id]
		if n.CooldownRemaining <= 0 {
			continue
		}
		n.CooldownRemaining--
		if n.CooldownRemaining == 0 {
			n.Remaining = n.MaxHarvests
		}
	}
}

func decayThreatTables(w *sim.WorldState, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		if len(e.ThreatTable) == 0 {
			continue
		}
		for attackerID, v := range e.ThreatTable {
			if _, alive := w.Entities[attackerID]; !alive {
				delete(e.ThreatTable, attackerID)
				continue
			}
			v *= threatDecayFactor
			if v < threatPruneFloor {
				delete(e.ThreatTable, attackerID)
				continue
			}
			e.ThreatTable[attackerID] = v
		}
	}
}

// updateAndPruneMemory folds every currently visible entity/terrain cell
// into the observer's memory, marks entries not currently visible, and
// prunes entity memory entries older than sim.MemoryHorizonTicks.
// TerrainMemory is monotone and never pruned (spec.md §3).
func updateAndPruneMemory(w *sim.WorldState, ids []int64) {
	snap := sim.BuildSnapshot(w, 16)
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			continue
		}
		r := e.EffectiveVisionRange()
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				if abs(dx)+abs(dy) > r {
					continue
				}
				p := e.Pos.Add(dx, dy)
				if !w.Grid.InBounds(p.X, p.Y) {
					continue
				}
				e.Memory.TerrainMemory[p] = w.Grid.GetPos(p)
			}
		}

		visible := perception.VisibleEntities(*e, snap)
		visibleSet := make(map[int64]bool, len(visible))
		for _, vid := range visible {
			visibleSet[vid] = true
			other := w.Entities[vid]
			e.Memory.EntityMemory[vid] = sim.EntityMemoryEntry{
				LastPos: other.Pos, LastKind: other.Kind,
				LastHP: other.Base.HP, LastMaxHP: other.Base.MaxHP,
				LastSeenAt: w.Tick, VisibleNow: true,
			}
		}
		for mid, entry := range e.Memory.EntityMemory {
			if visibleSet[mid] {
				continue
			}
			entry.VisibleNow = false
			if w.Tick-entry.LastSeenAt > sim.MemoryHorizonTicks {
				delete(e.Memory.EntityMemory, mid)
				continue
			}
			e.Memory.EntityMemory[mid] = entry
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func applyTerritoryDebuffs(w *sim.WorldState, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			continue
		}
		onEnemy := sim.IsOnEnemyTerritory(w.Grid, w.Factions, e)
		idx := -1
		for i, eff := range e.Effects {
			if eff.Kind == territoryDebuffKind {
				idx = i
				break
			}
		}
		if !onEnemy {
			continue
		}
		debuff := sim.StatusEffect{
			Kind:            territoryDebuffKind,
			RemainingTicks:  3,
			StatMultipliers: map[string]float64{"atk": 0.85, "def": 0.85},
		}
		if idx >= 0 {
			e.Effects[idx] = debuff
		} else {
			e.Effects = append(e.Effects, debuff)
		}
	}
}

func matchQuestCompletion(w *sim.WorldState, ids []int64, log *events.Log) {
	quests := w.Registry.Quests()
	for _, id := range ids {
		e := w.Entities[id]
		if len(e.QuestProgress) == 0 {
			continue
		}
		questIDs := make([]string, 0, len(e.QuestProgress))
		for qid := range e.QuestProgress {
			questIDs = append(questIDs, qid)
		}
		sort.Strings(questIDs)
		for _, qid := range questIDs {
			q, ok := quests[qid]
			if !ok || e.CompletedQuests[qid] {
				continue
			}
			if e.QuestProgress[qid] < q.TargetCount {
				continue
			}
			if e.CompletedQuests == nil {
				e.CompletedQuests = make(map[string]bool)
			}
			e.CompletedQuests[qid] = true
			e.Base.Gold += q.RewardGold
			e.Base.XP += q.RewardXP
			if log != nil {
				log.Emit(w.Tick, events.CategoryLevelUp, fmt.Sprintf("entity %d completed quest %s", e.ID, qid))
			}
		}
	}
}

func matchExploreQuests(w *sim.WorldState, ids []int64) {
	quests := w.Registry.Quests()
	for qid, q := range quests {
		if q.ObjectiveKind != sim.QuestExploreRadius {
			continue
		}
		for _, id := range ids {
			e := w.Entities[id]
			if e.CompletedQuests[qid] {
				continue
			}
			if e.QuestProgress == nil {
				e.QuestProgress = make(map[string]int)
			}
			e.QuestProgress[qid] = len(e.Memory.TerrainMemory)
		}
	}
}

func resolveLevelUps(w *sim.WorldState, ids []int64, log *events.Log) {
	for _, id := range ids {
		e := w.Entities[id]
		for e.Base.XPToNext > 0 && e.Base.XP >= e.Base.XPToNext {
			e.Base.XP -= e.Base.XPToNext
			e.Base.Level++
			e.Base.MaxHP += 10
			e.Base.HP += 10
			e.Base.Atk += 2
			e.Base.Def += 1
			e.Base.XPToNext = int(float64(e.Base.XPToNext) * 1.25)
			if log != nil {
				log.Emit(w.Tick, events.CategoryLevelUp, fmt.Sprintf("entity %d reached level %d", e.ID, e.Base.Level))
			}
		}
	}
}

// tickEngagement implements spec.md §4.9 Phase 4k: any entity with a
// living hostile on an orthogonally-adjacent cell (Manhattan distance 1) this tick
// accumulates engaged_ticks; everyone else resets to 0. Move's
// engagement-lock opportunity attack and Combat's give-up-chase timer both
// read this counter, so it must be live every tick regardless of whether
// the entity itself acted.
func tickEngagement(w *sim.WorldState, ids []int64) {
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			e.EngagedTicks = 0
			continue
		}
		if hasAdjacentHostile(w, e) {
			e.EngagedTicks++
		} else {
			e.EngagedTicks = 0
		}
	}
}

// hasAdjacentHostile reports whether a living entity hostile to e occupies
// a cell at Manhattan distance 1 — the same adjacency the resolver uses
// for Move and melee Attack validation.
func hasAdjacentHostile(w *sim.WorldState, e *sim.Entity) bool {
	for _, other := range w.Entities {
		if other.ID == e.ID || !other.Alive {
			continue
		}
		if !w.Factions.IsHostile(e.Faction, other.Faction) {
			continue
		}
		if e.Pos.Manhattan(other.Pos) == 1 {
			return true
		}
	}
	return false
}

func recomputeGoals(w *sim.WorldState, ids []int64, cfg ai.Config) {
	snap := sim.BuildSnapshot(w, 16)
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			continue
		}
		ctx := ai.Context{Actor: *e, Snap: snap, Cfg: cfg}
		e.Goals = []string{ctx.Actor.AIState.String()}
	}
}
