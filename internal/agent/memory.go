package agent

import (
	"maps"
	"time"
)

const (
	// MaxHistory bounds Memory.History; the oldest entry is evicted first.
	MaxHistory = 100
	// MaxPatterns bounds each pattern list in Context.
	MaxPatterns = 50
)

type PatternKind string

const (
	DecisionPatterns   PatternKind = "decision_patterns"
	GrowthPatterns     PatternKind = "growth_patterns"
	MarketingPatterns  PatternKind = "marketing_patterns"
	CompliancePatterns PatternKind = "compliance_patterns"
	TechnicalPatterns  PatternKind = "technical_patterns"
	DataPatterns       PatternKind = "data_patterns"
	DesignPatterns     PatternKind = "design_patterns"
	ProblemPatterns    PatternKind = "problem_patterns"
)

// Context is the learned context of an agent. Extra holds free-form data
// that has no dedicated field.
type Context struct {
	Patterns map[PatternKind][]string `json:"patterns,omitempty"`
	Extra    map[string]any           `json:"extra,omitempty"`
}

type Preferences struct {
	CommunicationStyle string         `json:"communication_style,omitempty"`
	DetailLevel        string         `json:"detail_level,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

type HistoryEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Interaction string    `json:"interaction"`
	Outcome     Outcome   `json:"outcome"`
}

// Memory is a point-in-time copy of an agent's memory.
type Memory struct {
	UserID        string                  `json:"user_id"`
	Context       Context                 `json:"context"`
	Preferences   Preferences             `json:"preferences"`
	History       []HistoryEntry          `json:"history"`
	Relationships map[string]Relationship `json:"relationships"`
}

func (c Context) clone() Context {
	out := Context{Extra: maps.Clone(c.Extra)}
	if c.Patterns != nil {
		out.Patterns = make(map[PatternKind][]string, len(c.Patterns))
		for k, v := range c.Patterns {
			out.Patterns[k] = append([]string(nil), v...)
		}
	}
	return out
}

func (p Preferences) clone() Preferences {
	p.Extra = maps.Clone(p.Extra)
	return p
}

// appendBounded appends v and drops the oldest elements beyond limit.
func appendBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if over := len(s) - limit; over > 0 {
		s = append(s[:0:0], s[over:]...)
	}
	return s
}
