package resolver

import (
	"fmt"
	"math"
	"sort"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/events"
	"github.com/emberreach/worldsim/internal/sim/rngsvc"
)

// damageVariancePct is the +/- spread applied to every raw damage roll
// before crit, matching "variance roll within ±(variance/2)" (spec.md §4.8).
const damageVariancePct = 0.2

// apply mutates w according to the validated proposal p for actor, emits an
// observability event, and advances actor.NextActAt by the verb's action
// cost scaled against the actor's effective speed.
func apply(w *sim.WorldState, log *events.Log, cfg Config, actor *sim.Entity, p sim.ActionProposal) {
	cost := cfg.RestCost
	switch p.Verb {
	case sim.VerbRest:
		applyRest(actor)
		cost = cfg.RestCost

	case sim.VerbMove:
		mult := applyMove(w, log, actor, p.Target.Pos)
		cost = cfg.BaseMoveCost * w.Grid.GetPos(p.Target.Pos).MoveCost() * mult

	case sim.VerbAttack:
		applyAttack(w, log, actor, p.Target.EntityID)
		cost = cfg.AttackCost

	case sim.VerbUseSkill:
		applyUseSkill(w, log, actor, p.Target)
		cost = cfg.SkillCost

	case sim.VerbUseItem:
		applyUseItem(w, log, actor, p.Target.ItemID)
		cost = cfg.UseItemCost

	case sim.VerbLoot:
		applyLoot(w, log, cfg, actor, p.Target.Duration)
		cost = cfg.LootCost

	case sim.VerbHarvest:
		applyHarvest(w, log, cfg, actor, p.Target.NodeID, p.Target.Duration)
		cost = cfg.HarvestCost
	}

	speed := actor.Base.Spd
	if speed < 1 {
		speed = 1
	}
	scale := float64(cfg.ReferenceSpd) / float64(speed)
	actor.NextActAt = w.Tick + cost*scale
}

func applyRest(actor *sim.Entity) {
	if actor.Base.Stamina < actor.Base.MaxStamina {
		actor.Base.Stamina += actor.Base.MaxStamina * 0.1
		if actor.Base.Stamina > actor.Base.MaxStamina {
			actor.Base.Stamina = actor.Base.MaxStamina
		}
	}
}

// opportunityAtkMultiplier scales the attacker's atk stat for the
// reduced-damage opportunity attack an engagement-locked Move grants
// (spec.md §4.8).
const opportunityAtkMultiplier = 0.5

// applyMove relocates actor to dst and returns the cost multiplier apply
// should scale the base move cost by: 1 normally, or 2 if the move
// triggered an engagement lock (moving away from a hostile that has had
// actor adjacent for >= 2 consecutive ticks), which also grants that
// hostile a free reduced-damage opportunity attack.
func applyMove(w *sim.WorldState, log *events.Log, actor *sim.Entity, dst sim.Pos) float64 {
	actor.Base.Stamina--
	if actor.Base.Stamina < 0 {
		actor.Base.Stamina = 0
	}

	mult := 1.0
	if actor.EngagedTicks >= 2 {
		if hostile := fleeingHostile(w, actor, dst); hostile != nil {
			mult = 2.0
			applyOpportunityAttack(w, log, hostile, actor)
		}
	}

	actor.Pos = dst
	if log != nil {
		log.Emit(w.Tick, events.CategoryMove, fmt.Sprintf("entity %d moved to (%d,%d)", actor.ID, dst.X, dst.Y))
	}
	return mult
}

// fleeingHostile returns the lowest-id living hostile adjacent to actor's
// current position that dst would put actor farther from, or nil if none
// qualifies. Deterministic tie-break on id keeps the opportunity attack
// reproducible when more than one adjacent hostile is being fled.
func fleeingHostile(w *sim.WorldState, actor *sim.Entity, dst sim.Pos) *sim.Entity {
	var best *sim.Entity
	for _, other := range w.Entities {
		if other.ID == actor.ID || !other.Alive {
			continue
		}
		if !w.Factions.IsHostile(actor.Faction, other.Faction) {
			continue
		}
		curDist := actor.Pos.Manhattan(other.Pos)
		if curDist != 1 {
			continue
		}
		if dst.Manhattan(other.Pos) <= curDist {
			continue
		}
		if best == nil || other.ID < best.ID {
			best = other
		}
	}
	return best
}

// applyOpportunityAttack is Move's engagement-lock punish: a flat,
// reduced-power hit with no crit and no evade roll, threat accrued on the
// mover as normal.
func applyOpportunityAttack(w *sim.WorldState, log *events.Log, attacker, mover *sim.Entity) {
	attackerStats := sim.Effective(attacker, w.Registry)
	moverStats := sim.Effective(mover, w.Registry)
	dmg := math.Max(1, math.Round(float64(attackerStats.Atk)*opportunityAtkMultiplier)-math.Round(float64(moverStats.Def))/2)
	idmg := int(math.Round(dmg))
	mover.Base.HP -= idmg
	addThreat(attacker, mover, dmg)
	if log != nil {
		log.Emit(w.Tick, events.CategoryOpportunity, fmt.Sprintf("entity %d opportunity-attacked %d for %d", attacker.ID, mover.ID, idmg))
	}
	if mover.Base.HP <= 0 {
		mover.Base.HP = 0
		killEntity(w, log, attacker, mover)
	}
}

func applyAttack(w *sim.WorldState, log *events.Log, actor *sim.Entity, targetID int64) {
	target, ok := w.Entities[targetID]
	if !ok || !target.Alive {
		return
	}
	rng := rngHandleFor(w)
	actorStats := sim.Effective(actor, w.Registry)
	defStats := sim.Effective(target, w.Registry)

	actor.Base.Stamina -= 3
	if actor.Base.Stamina < 0 {
		actor.Base.Stamina = 0
	}

	if rng.Bool(rngsvc.DomainCombat, target.ID, 2, defStats.Evasion) {
		if log != nil {
			log.Emit(w.Tick, events.CategoryCombat, fmt.Sprintf("entity %d evaded attack from %d", target.ID, actor.ID))
		}
		addThreat(actor, target, 1)
		return
	}

	base := math.Max(1, math.Round(float64(actorStats.Atk))-math.Round(float64(defStats.Def))/2)
	variance := rng.Variance(rngsvc.DomainCombat, actor.ID, 0, damageVariancePct)
	dmg := base * (1 + variance)
	if rng.Bool(rngsvc.DomainCombat, actor.ID, 1, actorStats.CritRate) {
		dmg *= maxFloat(actorStats.CritDmg, 1)
	}
	dealDamage(w, log, actor, target, int(math.Round(dmg)))
}

// applyUseSkill resolves a single-target or AoE skill cast: damage skills
// hit every hostile within Radius of the target (or target's own position
// for AoE), scaling by falloff; buff/debuff skills with BuffDuration apply
// a StatusEffect instead of damage.
func applyUseSkill(w *sim.WorldState, log *events.Log, actor *sim.Entity, t sim.Target) {
	def, ok := w.Registry.Skill(t.SkillID)
	if !ok {
		return
	}
	idx := skillIndex(actor, t.SkillID)
	if idx < 0 {
		return
	}
	actor.Base.Stamina -= def.StaminaCost
	if actor.Base.Stamina < 0 {
		actor.Base.Stamina = 0
	}
	actor.Skills[idx].CooldownRemaining = def.CooldownFor(actor.Skills[idx].Mastery)
	actor.Skills[idx].TimesUsed++

	center := actor.Pos
	if t.HasEntity {
		if target, ok := w.Entities[t.EntityID]; ok {
			center = target.Pos
		}
	} else if t.HasPos {
		center = t.Pos
	}

	if def.BuffDuration > 0 {
		applySkillBuff(w, actor, def, center)
		if log != nil {
			log.Emit(w.Tick, events.CategorySkill, fmt.Sprintf("entity %d cast %s", actor.ID, def.ID))
		}
		return
	}

	rng := rngHandleFor(w)
	actorStats := sim.Effective(actor, w.Registry)
	for _, target := range sortedHostileTargets(w, actor) {
		dist := center.Manhattan(target.Pos)
		isCenter := dist == 0 || target.ID == t.EntityID
		if float64(dist) > def.Radius && !isCenter {
			continue
		}
		falloff := math.Max(0, 1-float64(dist)*def.Falloff)
		base := math.Max(1, float64(actorStats.Atk)*def.Power*falloff)
		if isCenter && rng.Bool(rngsvc.DomainCombat, actor.ID, 1, actorStats.CritRate) {
			base *= maxFloat(actorStats.CritDmg, 1)
		}
		dealDamage(w, log, actor, target, int(math.Round(base)))
	}
}

// sortedHostileTargets returns alive entities hostile to actor's faction,
// ordered by id so AoE resolution never depends on Go's randomized map
// iteration order.
func sortedHostileTargets(w *sim.WorldState, actor *sim.Entity) []*sim.Entity {
	var out []*sim.Entity
	for _, e := range w.Entities {
		if e.Alive && w.Factions.IsHostile(actor.Faction, e.Faction) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// applySkillBuff applies a status effect to every ally (TargetsAllies) or
// enemy within def.Radius of center (def.Radius == 0 means self/caster
// only for allies, or the explicit single target for debuffs).
func applySkillBuff(w *sim.WorldState, actor *sim.Entity, def sim.SkillDef, center sim.Pos) {
	ids := make([]int64, 0, len(w.Entities))
	for id := range w.Entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e := w.Entities[id]
		if !e.Alive {
			continue
		}
		hostile := w.Factions.IsHostile(actor.Faction, e.Faction)
		if def.TargetsAllies == hostile {
			continue
		}
		if def.Radius > 0 && center.Manhattan(e.Pos) > int(def.Radius) {
			continue
		}
		if def.Radius == 0 && e.ID != actor.ID && def.TargetsAllies {
			continue
		}
		if def.Radius == 0 && !def.TargetsAllies && e.Pos != center {
			continue
		}
		mods := make(map[string]float64, len(def.StatMods))
		for k, v := range def.StatMods {
			mods[k] = v
		}
		e.Effects = append(e.Effects, sim.StatusEffect{
			Kind:            def.ID,
			RemainingTicks:  def.BuffDuration,
			StatMultipliers: mods,
			Source:          actor.ID,
		})
	}
}

// dealDamage subtracts dmg from target's hp, adds threat, and handles
// death when hp reaches zero.
func dealDamage(w *sim.WorldState, log *events.Log, attacker, target *sim.Entity, dmg int) {
	if dmg < 0 {
		dmg = 0
	}
	target.Base.HP -= dmg
	addThreat(attacker, target, float64(dmg))
	if log != nil {
		log.Emit(w.Tick, events.CategoryAttack, fmt.Sprintf("entity %d hit %d for %d", attacker.ID, target.ID, dmg))
	}
	if target.Base.HP <= 0 {
		target.Base.HP = 0
		killEntity(w, log, attacker, target)
	}
}

func addThreat(attacker, target *sim.Entity, amount float64) {
	if target.ThreatTable == nil {
		target.ThreatTable = make(map[int64]float64)
	}
	target.ThreatTable[attacker.ID] += amount
}

// killEntity emits the Death event and credits the killer's kill-faction
// quest progress, then defers to sim.KillEntity for the respawn-vs-remove
// mechanics shared with death sources that have no attacking entity.
func killEntity(w *sim.WorldState, log *events.Log, killer, target *sim.Entity) {
	if log != nil {
		log.Emit(w.Tick, events.CategoryDeath, fmt.Sprintf("entity %d was slain by %d", target.ID, killer.ID))
	}
	trackQuestProgress(w, killer, sim.QuestKillFaction, target.Faction)
	w.KillEntity(target)
}

func applyUseItem(w *sim.WorldState, log *events.Log, actor *sim.Entity, itemID string) {
	if actor.Inventory == nil {
		return
	}
	idx := stackIndex(actor.Inventory.Bag, itemID)
	if idx < 0 {
		return
	}
	def, ok := w.Registry.Item(itemID)
	if !ok || !def.IsConsumable {
		return
	}
	stats := sim.Effective(actor, w.Registry)
	actor.Base.HP += def.HealAmount
	if actor.Base.HP > stats.MaxHP {
		actor.Base.HP = stats.MaxHP
	}

	actor.Inventory.Bag[idx].Count--
	if actor.Inventory.Bag[idx].Count <= 0 {
		actor.Inventory.Bag = append(actor.Inventory.Bag[:idx], actor.Inventory.Bag[idx+1:]...)
	}
	if log != nil {
		log.Emit(w.Tick, events.CategoryUseItem, fmt.Sprintf("entity %d used %s", actor.ID, itemID))
	}
}

// applyLoot accumulates actor.LootProgress by one tick toward duration
// (spec.md §4.5's Looting handler: "once it reaches loot_duration, propose
// Loot") and, only once that threshold is reached, transfers every stack at
// actor's cell into its inventory, auto-equipping each equippable item whose
// PowerScore beats whatever currently fills its slot; anything that would
// push the bag past cfg.InventoryCapacity drops back to the ground instead
// (spec.md §4.8).
func applyLoot(w *sim.WorldState, log *events.Log, cfg Config, actor *sim.Entity, duration int) {
	if duration < 1 {
		duration = 1
	}
	actor.LootDuration = duration
	actor.LootProgress++
	if actor.LootProgress < actor.LootDuration {
		return
	}
	actor.LootProgress = 0

	items := w.TakeGroundItems(actor.Pos)
	if len(items) == 0 {
		return
	}
	if actor.Inventory == nil {
		actor.Inventory = &sim.Inventory{}
	}
	var overflow []sim.GroundStack
	for _, it := range items {
		if tryAutoEquip(w, actor, it.ItemID) {
			trackQuestProgress(w, actor, sim.QuestLootItem, it.ItemID)
			continue
		}
		if cfg.InventoryCapacity > 0 && len(actor.Inventory.Bag) >= cfg.InventoryCapacity {
			overflow = append(overflow, it)
			continue
		}
		actor.Inventory.Bag = append(actor.Inventory.Bag, sim.ItemStack{ItemID: it.ItemID, Count: it.Count})
		trackQuestProgress(w, actor, sim.QuestLootItem, it.ItemID)
	}
	if len(overflow) > 0 {
		w.DropItems(actor.Pos, overflow...)
	}
	if log != nil {
		log.Emit(w.Tick, events.CategoryLoot, fmt.Sprintf("entity %d looted %d stacks", actor.ID, len(items)))
	}
}

// tryAutoEquip equips itemID into its registry slot if the slot is empty or
// the new item's PowerScore beats the currently equipped one, returning
// whether it did. The bumped item (if any) is returned to the ground at the
// actor's position rather than the bag, matching the spec's "auto-equip if
// it beats the equipped slot" contract.
func tryAutoEquip(w *sim.WorldState, actor *sim.Entity, itemID string) bool {
	def, ok := w.Registry.Item(itemID)
	if !ok || !def.IsEquippable {
		return false
	}
	if actor.Inventory == nil {
		actor.Inventory = &sim.Inventory{}
	}
	current := actor.Inventory.Equip[def.Slot]
	if current.ItemID != "" {
		curDef, ok := w.Registry.Item(current.ItemID)
		if ok && curDef.PowerScore >= def.PowerScore {
			return false
		}
	}
	actor.Inventory.Equip[def.Slot] = sim.ItemStack{ItemID: itemID, Count: 1}
	if current.ItemID != "" {
		w.DropItems(actor.Pos, sim.GroundStack{ItemID: current.ItemID, Count: 1, DroppedAt: w.Tick})
	}
	return true
}

// applyHarvest mirrors applyLoot's progress gating (Looting and Harvesting
// are mutually exclusive states, so they share the entity's single
// LootProgress/LootDuration pair), then decrements the node and appends its
// yield to actor's inventory, dropping the yield to the ground instead when
// the bag is at capacity (spec.md §4.8 "overflow drops to ground at actor
// cell").
func applyHarvest(w *sim.WorldState, log *events.Log, cfg Config, actor *sim.Entity, nodeID int64, duration int) {
	if duration < 1 {
		duration = 1
	}
	actor.LootDuration = duration
	actor.LootProgress++
	if actor.LootProgress < actor.LootDuration {
		return
	}
	actor.LootProgress = 0

	node, ok := w.Nodes[nodeID]
	if !ok || node.Depleted() {
		return
	}
	node.Remaining--
	if actor.Inventory == nil {
		actor.Inventory = &sim.Inventory{}
	}
	if cfg.InventoryCapacity > 0 && len(actor.Inventory.Bag) >= cfg.InventoryCapacity {
		w.DropItems(actor.Pos, sim.GroundStack{ItemID: node.YieldItemID, Count: 1, DroppedAt: w.Tick})
	} else {
		actor.Inventory.Bag = append(actor.Inventory.Bag, sim.ItemStack{ItemID: node.YieldItemID, Count: 1})
	}
	trackQuestProgress(w, actor, sim.QuestHarvestItem, node.YieldItemID)
	if node.Depleted() {
		node.CooldownRemaining = node.RespawnCooldown
	}
	if log != nil {
		log.Emit(w.Tick, events.CategoryHarvest, fmt.Sprintf("entity %d harvested %s", actor.ID, node.YieldItemID))
	}
}

// trackQuestProgress increments actor's progress counter for every quest
// definition whose objective kind/target tag matches this action, so the
// engine's bookkeeping phase can later detect completion and grant rewards
// (spec.md's quest system treats matching and reward-granting as separate
// concerns from progress accrual).
func trackQuestProgress(w *sim.WorldState, actor *sim.Entity, kind sim.QuestObjectiveKind, targetTag string) {
	if actor.CompletedQuests == nil {
		actor.CompletedQuests = make(map[string]bool)
	}
	for id, q := range w.Registry.Quests() {
		if actor.CompletedQuests[id] || q.ObjectiveKind != kind || q.TargetTag != targetTag {
			continue
		}
		if actor.QuestProgress == nil {
			actor.QuestProgress = make(map[string]int)
		}
		actor.QuestProgress[id]++
	}
}
