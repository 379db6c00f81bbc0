// Package registry holds the agents of one user session.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/llm"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
)

type Registry struct {
	userID string
	agents map[string]*agent.Agent
	order  []string
	mu     sync.RWMutex
}

// New builds one agent per built-in persona for userID. Definitions override
// the persona defaults; definitions for unknown ids are ignored.
func New(userID string, gen llm.Generator, llmCfg config.LLMConfig, defs map[string]config.AgentDefinition, opts ...agent.Option) *Registry {
	r := &Registry{
		userID: userID,
		agents: make(map[string]*agent.Agent),
	}

	settings := agent.Settings{
		Model:       llmCfg.Model,
		Temperature: llmCfg.Temperature,
		MaxTokens:   llmCfg.MaxTokens,
	}
	for _, p := range agent.Catalog() {
		a := agent.New(p, userID, gen, settings, opts...)
		r.agents[p.ID] = a
		r.order = append(r.order, p.ID)
	}
	r.Apply(defs)
	return r
}

func (r *Registry) UserID() string {
	return r.userID
}

func (r *Registry) Lookup(agentID string) (*agent.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[agentID]
	return a, ok
}

// List returns the agents in routing order.
func (r *Registry) List() []*agent.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*agent.Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Apply reconfigures every agent from defs. Agents without a definition
// revert to their persona defaults.
func (r *Registry) Apply(defs map[string]config.AgentDefinition) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range defs {
		if _, ok := r.agents[id]; !ok {
			slog.Warn("agent definition ignored, no such persona", "agent", id)
		}
	}
	for _, id := range r.order {
		r.agents[id].Configure(defs[id])
	}
}

// Restore loads persisted memory for every agent of the session.
func (r *Registry) Restore(s *store.Store) error {
	mems, err := s.ListAgentMemory(r.userID)
	if err != nil {
		return err
	}
	for _, m := range mems {
		a, ok := r.Lookup(m.AgentID)
		if !ok {
			slog.Debug("skipping memory of unknown agent", "agent", m.AgentID, "user", r.userID)
			continue
		}
		var mem agent.Memory
		if err := json.Unmarshal(m.Memory, &mem); err != nil {
			return fmt.Errorf("decode memory of %s: %w", m.AgentID, err)
		}
		a.Restore(mem)
	}
	return nil
}

// Persist saves the memory of the given agents, or of all agents when no
// id is given.
func (r *Registry) Persist(s *store.Store, agentIDs ...string) error {
	if len(agentIDs) == 0 {
		agentIDs = r.IDs()
	}
	for _, id := range agentIDs {
		a, ok := r.Lookup(id)
		if !ok {
			continue
		}
		snap := a.Snapshot()
		data, err := json.Marshal(snap.Memory)
		if err != nil {
			return fmt.Errorf("encode memory of %s: %w", id, err)
		}
		if err := s.SaveAgentMemory(&store.AgentMemory{
			UserID:  r.userID,
			AgentID: id,
			Name:    snap.Name,
			Memory:  data,
		}); err != nil {
			return fmt.Errorf("persist %s: %w", id, err)
		}
	}
	return nil
}
