package agent

import (
	"math"
	"slices"
	"time"
)

const (
	InitialTrust = 0.5
	trustReward  = 0.1
	trustPenalty = 0.05
)

type CollaborationRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Interaction string    `json:"interaction"`
	Outcome     Outcome   `json:"outcome"`
}

// Relationship is an agent's view of one peer. TrustLevel stays within [0,1].
type Relationship struct {
	AgentID              string                `json:"agent_id"`
	CollaborationHistory []CollaborationRecord `json:"collaboration_history"`
	TrustLevel           float64               `json:"trust_level"`
}

// RelationshipTracker holds the relationships of one agent. It is not safe
// for concurrent use; the owning Agent serializes access.
type RelationshipTracker struct {
	rels map[string]*Relationship
}

func NewRelationshipTracker() *RelationshipTracker {
	return &RelationshipTracker{rels: make(map[string]*Relationship)}
}

// Update records an interaction with agentID, creating the relationship on
// first use, and adjusts trust by the outcome.
func (t *RelationshipTracker) Update(agentID, interaction string, outcome Outcome, at time.Time) Relationship {
	rel, ok := t.rels[agentID]
	if !ok {
		rel = &Relationship{AgentID: agentID, TrustLevel: InitialTrust}
		t.rels[agentID] = rel
	}

	rel.CollaborationHistory = append(rel.CollaborationHistory, CollaborationRecord{
		Timestamp:   at,
		Interaction: interaction,
		Outcome:     outcome,
	})
	if outcome.Success {
		rel.TrustLevel = math.Min(1, rel.TrustLevel+trustReward)
	} else {
		rel.TrustLevel = math.Max(0, rel.TrustLevel-trustPenalty)
	}
	return rel.clone()
}

func (t *RelationshipTracker) Get(agentID string) (Relationship, bool) {
	rel, ok := t.rels[agentID]
	if !ok {
		return Relationship{}, false
	}
	return rel.clone(), true
}

func (t *RelationshipTracker) Snapshot() map[string]Relationship {
	out := make(map[string]Relationship, len(t.rels))
	for id, rel := range t.rels {
		out[id] = rel.clone()
	}
	return out
}

// Restore replaces all relationships, clamping restored trust values.
func (t *RelationshipTracker) Restore(rels map[string]Relationship) {
	t.rels = make(map[string]*Relationship, len(rels))
	for id, rel := range rels {
		rel := rel.clone()
		if rel.AgentID == "" {
			rel.AgentID = id
		}
		rel.TrustLevel = math.Max(0, math.Min(1, rel.TrustLevel))
		t.rels[id] = &rel
	}
}

func (r *Relationship) clone() Relationship {
	out := *r
	out.CollaborationHistory = slices.Clone(r.CollaborationHistory)
	return out
}
