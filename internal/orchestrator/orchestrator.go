// Package orchestrator wires routing, agents, collaboration and workflows
// into the chat contract served to callers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/collab"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/registry"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/router"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/workflow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrEmptyMessage  = errors.New("message is empty")
)

var tracer = otel.Tracer("github.com/prettyinpurple2021/solosuccess-ai/internal/orchestrator")

const workflowNameLimit = 60

// Events receives everything the orchestrator and its executor publish.
type Events interface {
	workflow.Events
	ChatEvent(userID, eventType string, data map[string]any)
	AgentEvent(agentID, eventType string, data map[string]any)
}

type ChatRequest struct {
	Message string         `json:"message"`
	AgentID string         `json:"agent_id,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

type ChatResult struct {
	AgentID                string             `json:"agent_id"`
	PrimaryResponse        agent.Response     `json:"primary_response"`
	CollaborationResponses []agent.Response   `json:"collaboration_responses"`
	Workflow               *workflow.Workflow `json:"workflow,omitempty"`
}

type Insights struct {
	TotalCollaborations      int                           `json:"total_collaborations"`
	SuccessfulCollaborations int                           `json:"successful_collaborations"`
	AgentRelationships       map[string]map[string]float64 `json:"agent_relationships"`
	WorkflowStats            workflow.Stats                `json:"workflow_stats"`
}

// Orchestrator serves one user session.
type Orchestrator struct {
	userID      string
	registry    *registry.Registry
	router      *router.Router
	coordinator *collab.Coordinator
	builder     *workflow.Builder
	executor    *workflow.Executor
	workflows   workflow.Store
	memory      *store.Store
	events      Events
}

// New creates the orchestrator of reg's user. memory and events may be nil.
func New(reg *registry.Registry, rtr *router.Router, workflows workflow.Store, memory *store.Store, events Events, stepTimeout time.Duration) *Orchestrator {
	var wfEvents workflow.Events
	if events != nil {
		wfEvents = events
	}
	return &Orchestrator{
		userID:      reg.UserID(),
		registry:    reg,
		router:      rtr,
		coordinator: collab.NewCoordinator(reg),
		builder:     workflow.NewBuilder(workflows),
		executor:    workflow.NewExecutor(workflows, reg, wfEvents, stepTimeout),
		workflows:   workflows,
		memory:      memory,
		events:      events,
	}
}

func (o *Orchestrator) UserID() string {
	return o.userID
}

// HandleChatRequest answers message with the routed or explicit agent,
// resolves its collaboration requests and creates a workflow when warranted.
func (o *Orchestrator) HandleChatRequest(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	return o.chat(ctx, req, nil)
}

// StreamChatRequest is HandleChatRequest delivering each part through emit
// as soon as it is ready. An emit error aborts the request.
func (o *Orchestrator) StreamChatRequest(ctx context.Context, req ChatRequest, emit func(StreamEvent) error) error {
	if emit == nil {
		return errors.New("orchestrator: nil emit")
	}
	_, err := o.chat(ctx, req, emit)
	return err
}

func (o *Orchestrator) chat(ctx context.Context, req ChatRequest, emit func(StreamEvent) error) (*ChatResult, error) {
	send := func(ev StreamEvent) error {
		if emit == nil {
			return nil
		}
		return emit(ev)
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	agentID := o.router.Resolve(req.AgentID, message)
	primary, ok := o.registry.Lookup(agentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}

	ctx, span := tracer.Start(ctx, "orchestrator.chat")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", agentID), attribute.String("user.id", o.userID))

	rc := agent.RequestContext{UserID: o.userID, Extra: req.Context}
	result := &ChatResult{AgentID: agentID}

	result.PrimaryResponse = primary.ProcessRequest(ctx, message, rc)
	if err := send(StreamEvent{Type: EventPrimaryResponse, AgentID: agentID, Data: result.PrimaryResponse}); err != nil {
		return nil, err
	}

	result.CollaborationResponses = o.coordinator.HandleCollaborationRequests(ctx, result.PrimaryResponse.CollaborationRequests, agentID, rc)
	for i, resp := range result.CollaborationResponses {
		if err := send(StreamEvent{Type: EventCollaborationResponse, Index: intPtr(i), AgentID: resp.AgentID, Data: resp}); err != nil {
			return nil, err
		}
	}

	primary.LearnFromInteraction(message, agent.Outcome{Success: !result.PrimaryResponse.Degraded})

	if workflow.ShouldCreateWorkflow(result.PrimaryResponse, result.CollaborationResponses) {
		wf, err := o.builder.CreateWorkflow(workflowName(message), o.userID, result.PrimaryResponse, result.CollaborationResponses)
		if err != nil {
			slog.Error("create workflow failed", "user", o.userID, "agent", agentID, "error", err)
		} else {
			result.Workflow = wf
			if err := send(StreamEvent{Type: EventWorkflowCreated, Data: wf}); err != nil {
				return nil, err
			}
		}
	}

	touched := []string{agentID}
	for _, resp := range result.CollaborationResponses {
		touched = append(touched, resp.AgentID)
	}
	o.persist(touched...)
	o.publishChat(result)

	if err := send(StreamEvent{Type: EventDone}); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) ListAgents() []agent.Snapshot {
	agents := o.registry.List()
	out := make([]agent.Snapshot, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.Snapshot())
	}
	return out
}

func (o *Orchestrator) ListWorkflows(ctx context.Context) ([]*workflow.Workflow, error) {
	return o.workflows.List(o.userID)
}

// GetWorkflow returns a workflow of this session's user.
func (o *Orchestrator) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	wf, err := o.workflows.Get(id)
	if err != nil {
		return nil, err
	}
	if wf.UserID != o.userID {
		return nil, fmt.Errorf("%w: %s", workflow.ErrWorkflowNotFound, id)
	}
	return wf, nil
}

// ExecuteWorkflow runs a workflow of this session's user.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	if _, err := o.GetWorkflow(ctx, id); err != nil {
		return nil, err
	}
	wf, err := o.executor.ExecuteWorkflow(ctx, id)
	if err != nil {
		return wf, err
	}

	agentIDs := make([]string, 0, len(wf.Steps))
	for _, s := range wf.Steps {
		agentIDs = append(agentIDs, s.AgentID)
	}
	o.persist(agentIDs...)
	return wf, nil
}

// Insights aggregates the relationships of all agents and the user's
// workflow counts.
func (o *Orchestrator) Insights(ctx context.Context) (*Insights, error) {
	in := &Insights{AgentRelationships: make(map[string]map[string]float64)}
	for _, a := range o.registry.List() {
		snap := a.Snapshot()
		trust := make(map[string]float64, len(snap.Memory.Relationships))
		for peer, rel := range snap.Memory.Relationships {
			trust[peer] = rel.TrustLevel
			for _, rec := range rel.CollaborationHistory {
				in.TotalCollaborations++
				if rec.Outcome.Success {
					in.SuccessfulCollaborations++
				}
			}
		}
		in.AgentRelationships[snap.ID] = trust
	}

	stats, err := o.workflows.Stats(o.userID)
	if err != nil {
		return nil, fmt.Errorf("workflow stats: %w", err)
	}
	in.WorkflowStats = stats
	return in, nil
}

// CollaborationStats reports the coordinator counters of this session.
func (o *Orchestrator) CollaborationStats() collab.Stats {
	return o.coordinator.Stats()
}

func (o *Orchestrator) persist(agentIDs ...string) {
	if o.memory == nil {
		return
	}
	if err := o.registry.Persist(o.memory, dedupe(agentIDs)...); err != nil {
		slog.Warn("persist agent memory failed", "user", o.userID, "error", err)
	}
}

func (o *Orchestrator) publishChat(result *ChatResult) {
	if o.events == nil {
		return
	}
	data := map[string]any{
		"agent_id":       result.AgentID,
		"confidence":     result.PrimaryResponse.Confidence,
		"collaborations": len(result.CollaborationResponses),
	}
	if result.Workflow != nil {
		data["workflow_id"] = result.Workflow.ID
	}
	o.events.ChatEvent(o.userID, "chat_completed", data)

	for _, resp := range result.CollaborationResponses {
		o.events.AgentEvent(resp.AgentID, "collaboration_completed", map[string]any{
			"requested_by": result.AgentID,
			"user_id":      o.userID,
		})
	}
}

func workflowName(message string) string {
	name := strings.Join(strings.Fields(message), " ")
	if r := []rune(name); len(r) > workflowNameLimit {
		name = string(r[:workflowNameLimit]) + "..."
	}
	return "Follow-up: " + name
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
