package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/collab"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/llm"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/registry"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/router"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/workflow"
)

// Manager owns one Orchestrator per user. Sessions share the router, the
// workflow store and the event publisher; agents and their memory are per
// user.
type Manager struct {
	gen       llm.Generator
	router    *router.Router
	workflows workflow.Store
	memory    *store.Store
	events    Events
	agentOpts []agent.Option

	mu       sync.Mutex
	cfg      *config.Config
	sessions map[string]*Orchestrator
}

// NewManager creates a session manager. memory and events may be nil.
func NewManager(cfg *config.Config, gen llm.Generator, workflows workflow.Store, memory *store.Store, events Events, agentOpts ...agent.Option) *Manager {
	return &Manager{
		gen:       gen,
		router:    router.New(cfg.Router),
		workflows: workflows,
		memory:    memory,
		events:    events,
		agentOpts: agentOpts,
		cfg:       cfg,
		sessions:  make(map[string]*Orchestrator),
	}
}

// Session returns the orchestrator of userID, creating it and restoring
// persisted agent memory on first use. An empty userID selects the
// configured default user.
func (m *Manager) Session(userID string) (*Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = m.cfg.Session.DefaultUser
	}
	if o, ok := m.sessions[userID]; ok {
		return o, nil
	}

	reg := registry.New(userID, m.gen, m.cfg.LLM, m.cfg.Agents, m.agentOpts...)
	if m.memory != nil {
		if err := reg.Restore(m.memory); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", userID, err)
		}
	}
	o := New(reg, m.router, m.workflows, m.memory, m.events, m.cfg.Workflow.StepTimeout)
	m.sessions[userID] = o
	slog.Info("session started", "user", userID)
	return o, nil
}

// Users lists the users with a live session.
func (m *Manager) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

func (m *Manager) Router() *router.Router {
	return m.router
}

func (m *Manager) Workflows() workflow.Store {
	return m.workflows
}

// ExecuteWorkflow runs a workflow in the session of its owner.
func (m *Manager) ExecuteWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	wf, err := m.workflows.Get(id)
	if err != nil {
		return nil, err
	}
	o, err := m.Session(wf.UserID)
	if err != nil {
		return nil, err
	}
	return o.ExecuteWorkflow(ctx, id)
}

// CollaborationStats sums the coordinator counters of all sessions.
func (m *Manager) CollaborationStats() collab.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total collab.Stats
	for _, o := range m.sessions {
		st := o.CollaborationStats()
		total.Total += st.Total
		total.Successful += st.Successful
		total.Skipped += st.Skipped
	}
	return total
}

// Reload applies the reloadable parts of a new config to every session.
func (m *Manager) Reload(cfg *config.Config) config.ConfigDiff {
	m.mu.Lock()
	defer m.mu.Unlock()

	diff := config.Diff(m.cfg, cfg)
	for _, field := range diff.NonReloadable {
		slog.Warn("config change requires restart", "field", field)
	}

	if diff.RouterChanged {
		m.router.SetDefaultAgent(diff.NewDefaultAgent)
		slog.Info("default agent changed", "agent", diff.NewDefaultAgent)
	}
	for _, o := range m.sessions {
		if len(diff.AgentsChanged) > 0 {
			o.registry.Apply(cfg.Agents)
		}
		if diff.WorkflowChanged {
			o.executor.SetStepTimeout(cfg.Workflow.StepTimeout)
		}
	}
	if len(diff.AgentsChanged) > 0 {
		slog.Info("agent definitions reloaded", "agents", diff.AgentsChanged)
	}

	// Fields that need a restart keep their running values.
	next := *cfg
	next.LLM = m.cfg.LLM
	next.Store = m.cfg.Store
	next.NATS = m.cfg.NATS
	next.Web = m.cfg.Web
	next.Training = m.cfg.Training
	m.cfg = &next
	return diff
}
