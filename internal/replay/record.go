// Package replay implements an append-only, newline-delimited JSON log of
// tick records sufficient to reproduce a run byte-for-byte from the same
// world seed (spec.md §6, §8's replay law). It is grounded on events.Log's
// async file-writer pattern (internal/sim/events/event.go), simplified: a
// replay log is write-once and read back sequentially, not queried live,
// so it carries none of the ring buffer or rate limiter.
package replay

import "github.com/emberreach/worldsim/internal/sim"

// TargetRecord is the JSON-friendly form of sim.Target.
type TargetRecord struct {
	Pos       sim.Pos `json:"pos,omitempty"`
	HasPos    bool    `json:"has_pos,omitempty"`
	EntityID  int64   `json:"entity_id,omitempty"`
	HasEntity bool    `json:"has_entity,omitempty"`
	ItemID    string  `json:"item_id,omitempty"`
	NodeID    int64   `json:"node_id,omitempty"`
	HasNode   bool    `json:"has_node,omitempty"`
	SkillID   string  `json:"skill_id,omitempty"`
}

// ActionRecord is the JSON-friendly form of sim.ActionProposal: the
// committed intent the resolver actually applied.
type ActionRecord struct {
	ActorID        int64        `json:"actor_id"`
	ActorNextActAt float64      `json:"actor_next_act_at"`
	Verb           sim.Verb     `json:"verb"`
	Target         TargetRecord `json:"target"`
	NewAIState     sim.AIState  `json:"new_ai_state,omitempty"`
	HasNewAIState  bool         `json:"has_new_ai_state,omitempty"`
	Reason         string       `json:"reason,omitempty"`
}

// TickRecord is one line of the replay log: a tick number, the proposals
// committed that tick, and the ids of any entities the generators spawned.
// Spawned ids are recorded for audit only — generators are a pure function
// of (seed, tick, camp id) and reproduce identical spawns on replay without
// consulting this field.
type TickRecord struct {
	Tick    int64          `json:"tick"`
	Actions []ActionRecord `json:"actions"`
	Spawned []int64        `json:"spawned,omitempty"`
}

func toActionRecord(p sim.ActionProposal) ActionRecord {
	return ActionRecord{
		ActorID:        p.ActorID,
		ActorNextActAt: p.ActorNextActAt,
		Verb:           p.Verb,
		Target: TargetRecord{
			Pos:       p.Target.Pos,
			HasPos:    p.Target.HasPos,
			EntityID:  p.Target.EntityID,
			HasEntity: p.Target.HasEntity,
			ItemID:    p.Target.ItemID,
			NodeID:    p.Target.NodeID,
			HasNode:   p.Target.HasNode,
			SkillID:   p.Target.SkillID,
		},
		NewAIState:    p.NewAIState,
		HasNewAIState: p.HasNewAIState,
		Reason:        p.Reason,
	}
}

func (a ActionRecord) toProposal() sim.ActionProposal {
	return sim.ActionProposal{
		ActorID:        a.ActorID,
		ActorNextActAt: a.ActorNextActAt,
		Verb:           a.Verb,
		Target: sim.Target{
			Pos:       a.Target.Pos,
			HasPos:    a.Target.HasPos,
			EntityID:  a.Target.EntityID,
			HasEntity: a.Target.HasEntity,
			ItemID:    a.Target.ItemID,
			NodeID:    a.Target.NodeID,
			HasNode:   a.Target.HasNode,
			SkillID:   a.Target.SkillID,
		},
		NewAIState:    a.NewAIState,
		HasNewAIState: a.HasNewAIState,
		Reason:        a.Reason,
	}
}
