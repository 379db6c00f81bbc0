package workflow

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
)

func task(id, assignedTo, outcome string, deps ...string) agent.Task {
	return agent.Task{
		ID:              id,
		AssignedTo:      assignedTo,
		ExpectedOutcome: outcome,
		Dependencies:    deps,
		Priority:        agent.PriorityMedium,
		Status:          agent.TaskPending,
	}
}

func TestShouldCreateWorkflow(t *testing.T) {
	withTask := agent.Response{FollowUpTasks: []agent.Task{task("t1", "lumi", "review")}}
	plain := agent.Response{}
	one := []agent.Response{{AgentID: "blaze"}}
	two := []agent.Response{{AgentID: "blaze"}, {AgentID: "lexi"}}

	tests := []struct {
		name    string
		primary agent.Response
		collabs []agent.Response
		want    bool
	}{
		{"nothing", plain, nil, false},
		{"single collaboration", plain, one, false},
		{"two collaborations", plain, two, true},
		{"follow-up task", withTask, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldCreateWorkflow(tt.primary, tt.collabs); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateWorkflowFlattensTasks(t *testing.T) {
	s := newMemStore()
	b := NewBuilder(s)

	primary := agent.Response{
		AgentID:       "roxy",
		FollowUpTasks: []agent.Task{task("t1", "lumi", "review pricing terms")},
	}
	collabs := []agent.Response{
		{AgentID: "blaze", FollowUpTasks: []agent.Task{task("t2", "lexi", "model churn", "lumi")}},
		{AgentID: "echo"},
	}

	wf, err := b.CreateWorkflow("Pricing", "user-1", primary, collabs)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if wf.ID == "" || wf.Status != StatusPending || wf.UserID != "user-1" {
		t.Errorf("unexpected workflow %+v", wf)
	}
	if len(wf.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(wf.Steps))
	}
	first := wf.Steps[0]
	if first.AgentID != "lumi" || first.Task != "review pricing terms" || first.ExpectedOutcome != "review pricing terms" || first.TaskID != "t1" {
		t.Errorf("unexpected first step %+v", first)
	}
	if deps := wf.Steps[1].Dependencies; len(deps) != 1 || deps[0] != "lumi" {
		t.Errorf("dependencies not kept: %v", deps)
	}

	stored, err := s.Get(wf.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Steps) != 2 {
		t.Errorf("stored workflow has %d steps", len(stored.Steps))
	}
}

func TestCreateWorkflowKeepsUnsatisfiableGraph(t *testing.T) {
	s := newMemStore()
	primary := agent.Response{FollowUpTasks: []agent.Task{
		task("t1", "roxy", "x", "blaze"),
		task("t2", "blaze", "y", "roxy"),
	}}
	wf, err := NewBuilder(s).CreateWorkflow("Cycle", "user-1", primary, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if wf.Status != StatusPending {
		t.Errorf("expected pending, got %s", wf.Status)
	}
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewSQLStore(s)
}

func TestSQLStore(t *testing.T) {
	s := newSQLStore(t)

	if _, err := s.Get("missing"); !errors.Is(err, ErrWorkflowNotFound) {
		t.Fatalf("expected ErrWorkflowNotFound, got %v", err)
	}

	wf, err := NewBuilder(s).CreateWorkflow("Pricing", "user-1", agent.Response{
		FollowUpTasks: []agent.Task{task("t1", "lumi", "review pricing terms")},
	}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(wf.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Pricing" || len(got.Steps) != 1 || got.Steps[0].AgentID != "lumi" {
		t.Errorf("unexpected workflow %+v", got)
	}
	if got.Results == nil {
		t.Error("results should be an empty map")
	}

	got.Status = StatusCompleted
	got.Results["lumi"] = agent.Response{AgentID: "lumi", Content: "terms ok", Confidence: 0.9}
	if err := s.Save(got); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, _ := s.Get(wf.ID)
	if again.Results["lumi"].Content != "terms ok" {
		t.Errorf("results not persisted: %+v", again.Results)
	}
	if again.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}

	pending, _ := s.ListByStatus(StatusPending)
	if len(pending) != 0 {
		t.Errorf("expected no pending workflows, got %d", len(pending))
	}
	list, _ := s.List("user-1")
	if len(list) != 1 {
		t.Errorf("expected 1 workflow, got %d", len(list))
	}
	st, err := s.Stats("user-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 1 || st.Completed != 1 || st.Failed != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}
