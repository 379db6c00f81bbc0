package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/llm"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/workflow"
)

type recordedEvents struct {
	mu    sync.Mutex
	types []string
}

func (r *recordedEvents) add(kind, eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, kind+":"+eventType)
}

func (r *recordedEvents) WorkflowEvent(_, eventType string, _ map[string]any) {
	r.add("workflow", eventType)
}

func (r *recordedEvents) ChatEvent(_, eventType string, _ map[string]any) {
	r.add("chat", eventType)
}

func (r *recordedEvents) AgentEvent(_, eventType string, _ map[string]any) {
	r.add("agent", eventType)
}

func (r *recordedEvents) has(want string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t == want {
			return true
		}
	}
	return false
}

// scripted answers with the reply of the persona named at the start of the
// system prompt, or a plain answer when none is scripted.
func scripted(replies map[string]string) llm.Generator {
	return llm.GeneratorFunc(func(_ context.Context, req llm.Request) (llm.Response, error) {
		for name, reply := range replies {
			if strings.HasPrefix(req.SystemPrompt, "You are "+name+",") {
				return llm.Response{Text: reply}, nil
			}
		}
		return llm.Response{Text: `{"content": "done", "confidence": 0.8}`}, nil
	})
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{DefaultUser: "local"},
		LLM:     config.LLMConfig{Model: "test-model", Temperature: 0.5, MaxTokens: 100},
		Router:  config.RouterConfig{DefaultAgent: "roxy"},
	}
}

func newTestManager(t *testing.T, gen llm.Generator, events Events) (*Manager, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewManager(testConfig(), gen, workflow.NewSQLStore(s), s, events), s
}

const pricingReply = `{
	"content": "Run a staged price increase.",
	"confidence": 0.9,
	"follow_up_tasks": [{
		"type": "review",
		"priority": "high",
		"assigned_to": "lumi",
		"expected_outcome": "Check contracts allow a price change"
	}]
}`

func TestChatCreatesAndExecutesWorkflow(t *testing.T) {
	events := &recordedEvents{}
	m, _ := newTestManager(t, scripted(map[string]string{"Roxy": pricingReply}), events)
	o, err := m.Session("user-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	ctx := context.Background()
	res, err := o.HandleChatRequest(ctx, ChatRequest{Message: "I need to decide whether to raise prices"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.AgentID != "roxy" {
		t.Errorf("expected roxy, got %s", res.AgentID)
	}
	if res.PrimaryResponse.Confidence != 0.9 {
		t.Errorf("unexpected confidence %v", res.PrimaryResponse.Confidence)
	}
	if len(res.CollaborationResponses) != 0 {
		t.Errorf("expected no collaborations, got %d", len(res.CollaborationResponses))
	}
	if res.Workflow == nil {
		t.Fatal("expected a workflow")
	}
	if len(res.Workflow.Steps) != 1 || res.Workflow.Steps[0].AgentID != "lumi" {
		t.Fatalf("unexpected steps %+v", res.Workflow.Steps)
	}
	if !strings.Contains(res.Workflow.Name, "raise prices") {
		t.Errorf("unexpected name %q", res.Workflow.Name)
	}

	wf, err := o.ExecuteWorkflow(ctx, res.Workflow.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if wf.Status != workflow.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", wf.Status, wf.Error)
	}
	if len(wf.Results) != 1 || wf.Results["lumi"].Content != "done" {
		t.Errorf("unexpected results %+v", wf.Results)
	}

	list, err := o.ListWorkflows(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("expected 1 workflow, got %d (%v)", len(list), err)
	}
	for _, want := range []string{"chat:chat_completed", "workflow:workflow_started", "workflow:workflow_completed"} {
		if !events.has(want) {
			t.Errorf("missing event %s", want)
		}
	}
}

func TestChatUnknownAgent(t *testing.T) {
	m, _ := newTestManager(t, scripted(nil), nil)
	o, _ := m.Session("user-1")

	_, err := o.HandleChatRequest(context.Background(), ChatRequest{Message: "hello", AgentID: "nobody"})
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestChatExplicitAgentIsCaseInsensitive(t *testing.T) {
	m, _ := newTestManager(t, scripted(nil), nil)
	o, _ := m.Session("user-1")

	res, err := o.HandleChatRequest(context.Background(), ChatRequest{Message: "hello", AgentID: "Lumi"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.AgentID != "lumi" {
		t.Errorf("expected lumi, got %s", res.AgentID)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	m, _ := newTestManager(t, scripted(nil), nil)
	o, _ := m.Session("user-1")

	if _, err := o.HandleChatRequest(context.Background(), ChatRequest{Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestChatDegradesWhenGeneratorFails(t *testing.T) {
	gen := llm.GeneratorFunc(func(context.Context, llm.Request) (llm.Response, error) {
		return llm.Response{}, errors.New("quota exceeded")
	})
	m, _ := newTestManager(t, gen, nil)
	o, _ := m.Session("user-1")

	res, err := o.HandleChatRequest(context.Background(), ChatRequest{Message: "fix this bug"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.AgentID != "glitch" {
		t.Errorf("expected glitch, got %s", res.AgentID)
	}
	if !res.PrimaryResponse.Degraded || res.Workflow != nil {
		t.Errorf("expected degraded response without workflow, got %+v", res)
	}
}

const teamReply = `{
	"content": "Let me pull in the team.",
	"confidence": 0.8,
	"collaboration_requests": [
		{"agent_id": "blaze", "request": "pricing impact on revenue"},
		{"agent_id": "ghost", "request": "unknown agent"},
		{"agent_id": "echo", "request": "how to announce it"}
	]
}`

func TestStreamChatOrder(t *testing.T) {
	m, _ := newTestManager(t, scripted(map[string]string{"Roxy": teamReply}), nil)
	o, _ := m.Session("user-1")

	var got []string
	err := o.StreamChatRequest(context.Background(), ChatRequest{Message: "plan the launch"}, func(ev StreamEvent) error {
		label := ev.Type
		if ev.Index != nil {
			label += ":" + ev.AgentID
		}
		got = append(got, label)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	want := []string{
		EventPrimaryResponse,
		EventCollaborationResponse + ":blaze",
		EventCollaborationResponse + ":echo",
		EventWorkflowCreated,
		EventDone,
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStreamChatAbortsOnEmitError(t *testing.T) {
	m, _ := newTestManager(t, scripted(map[string]string{"Roxy": teamReply}), nil)
	o, _ := m.Session("user-1")

	gone := errors.New("client gone")
	calls := 0
	err := o.StreamChatRequest(context.Background(), ChatRequest{Message: "plan the launch"}, func(StreamEvent) error {
		calls++
		return gone
	})
	if !errors.Is(err, gone) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 emit call, got %d", calls)
	}
}

func TestInsights(t *testing.T) {
	m, _ := newTestManager(t, scripted(map[string]string{"Roxy": teamReply}), nil)
	o, _ := m.Session("user-1")
	ctx := context.Background()

	if _, err := o.HandleChatRequest(ctx, ChatRequest{Message: "plan the launch"}); err != nil {
		t.Fatalf("chat: %v", err)
	}

	in, err := o.Insights(ctx)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if in.TotalCollaborations != 2 || in.SuccessfulCollaborations != 2 {
		t.Errorf("unexpected totals %d/%d", in.TotalCollaborations, in.SuccessfulCollaborations)
	}
	if trust := in.AgentRelationships["blaze"]["roxy"]; trust < 0.59 || trust > 0.61 {
		t.Errorf("expected blaze to trust roxy at 0.6, got %v", trust)
	}
	if in.WorkflowStats.Total != 1 || in.WorkflowStats.Completed != 0 {
		t.Errorf("unexpected workflow stats %+v", in.WorkflowStats)
	}

	st := o.CollaborationStats()
	if st.Total != 2 || st.Successful != 2 || st.Skipped != 1 {
		t.Errorf("unexpected coordinator stats %+v", st)
	}
}

func TestWorkflowsAreScopedToUser(t *testing.T) {
	m, _ := newTestManager(t, scripted(map[string]string{"Roxy": pricingReply}), nil)
	ctx := context.Background()
	alice, _ := m.Session("alice")
	bob, _ := m.Session("bob")

	res, err := alice.HandleChatRequest(ctx, ChatRequest{Message: "decide on pricing"})
	if err != nil || res.Workflow == nil {
		t.Fatalf("chat: %v", err)
	}

	if _, err := bob.GetWorkflow(ctx, res.Workflow.ID); !errors.Is(err, workflow.ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
	if _, err := bob.ExecuteWorkflow(ctx, res.Workflow.ID); !errors.Is(err, workflow.ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}

	wf, err := m.ExecuteWorkflow(ctx, res.Workflow.ID)
	if err != nil || wf.Status != workflow.StatusCompleted {
		t.Fatalf("manager execute: %v %+v", err, wf)
	}
}

func TestListAgents(t *testing.T) {
	m, _ := newTestManager(t, scripted(nil), nil)
	o, _ := m.Session("")

	if o.UserID() != "local" {
		t.Errorf("expected default user, got %s", o.UserID())
	}
	agents := o.ListAgents()
	if len(agents) != 8 || agents[0].ID != "roxy" {
		t.Errorf("unexpected agents %d", len(agents))
	}
}

func TestWorkflowName(t *testing.T) {
	long := strings.Repeat("a", 100)
	if got := workflowName(long); len(got) != len("Follow-up: ")+workflowNameLimit+3 {
		t.Errorf("name not truncated: %q", got)
	}
	if got := workflowName("  raise\n prices "); got != "Follow-up: raise prices" {
		t.Errorf("got %q", got)
	}
}
