package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/workflow"
)

func TestSessionRestoresMemory(t *testing.T) {
	s := newTestStore(t)
	gen := scripted(nil)
	ctx := context.Background()

	first := NewManager(testConfig(), gen, workflow.NewSQLStore(s), s, nil)
	o, _ := first.Session("user-1")
	if _, err := o.HandleChatRequest(ctx, ChatRequest{Message: "review our brand voice"}); err != nil {
		t.Fatalf("chat: %v", err)
	}

	second := NewManager(testConfig(), gen, workflow.NewSQLStore(s), s, nil)
	o2, err := second.Session("user-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	for _, snap := range o2.ListAgents() {
		if snap.ID != "echo" {
			continue
		}
		if len(snap.Memory.History) != 1 {
			t.Errorf("expected restored history, got %d entries", len(snap.Memory.History))
		}
		return
	}
	t.Fatal("echo not listed")
}

func TestSessionReuse(t *testing.T) {
	m, _ := newTestManager(t, scripted(nil), nil)
	a, _ := m.Session("user-1")
	b, _ := m.Session(" user-1 ")
	if a != b {
		t.Error("expected the same session")
	}
	if users := m.Users(); len(users) != 1 || users[0] != "user-1" {
		t.Errorf("unexpected users %v", users)
	}
}

func TestReload(t *testing.T) {
	m, _ := newTestManager(t, scripted(nil), nil)
	o, _ := m.Session("user-1")

	next := testConfig()
	next.Router.DefaultAgent = "lexi"
	next.Workflow.StepTimeout = 5 * time.Second
	next.Agents = map[string]config.AgentDefinition{"blaze": {Name: "Blaze Prime"}}
	next.Store.Path = "elsewhere.db"

	diff := m.Reload(next)
	if !diff.RouterChanged || !diff.WorkflowChanged || len(diff.AgentsChanged) != 1 {
		t.Errorf("unexpected diff %+v", diff)
	}
	if len(diff.NonReloadable) != 1 || diff.NonReloadable[0] != "store.path" {
		t.Errorf("unexpected non-reloadable %v", diff.NonReloadable)
	}

	if got := m.Router().Route("hello there"); got != "lexi" {
		t.Errorf("expected lexi, got %s", got)
	}
	if got := o.executor.StepTimeout(); got != 5*time.Second {
		t.Errorf("expected 5s step timeout, got %v", got)
	}
	a, _ := o.registry.Lookup("blaze")
	if a.Name() != "Blaze Prime" {
		t.Errorf("expected renamed agent, got %s", a.Name())
	}

	if again := m.Reload(next); again.HasChanges() {
		t.Errorf("expected no changes on second reload, got %+v", again)
	}
}
