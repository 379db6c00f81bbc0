// Package agent implements the personas that turn a request into a
// structured response, together with their memory and relationships.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/llm"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/training"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DegradedConfidence is the confidence of a response produced after the
// generator failed.
const DegradedConfidence = 0.1

var tracer = otel.Tracer("github.com/prettyinpurple2021/solosuccess-ai/internal/agent")

// Settings are the generation parameters of an agent.
type Settings struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Snapshot is a copy of an agent's public state.
type Snapshot struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
	Settings     Settings     `json:"settings"`
	Memory       Memory       `json:"memory"`
}

type Option func(*Agent)

// WithRecorder sends every generated interaction to r.
func WithRecorder(r training.Recorder) Option {
	return func(a *Agent) { a.recorder = r }
}

// Agent is safe for concurrent use; memory updates are serialized.
type Agent struct {
	persona  Persona
	gen      llm.Generator
	recorder training.Recorder
	now      func() time.Time
	base     Settings

	mu            sync.Mutex
	name          string
	settings      Settings
	userID        string
	context       Context
	preferences   Preferences
	history       []HistoryEntry
	relationships *RelationshipTracker
}

func New(p Persona, userID string, gen llm.Generator, s Settings, opts ...Option) *Agent {
	a := &Agent{
		persona:       p.clone(),
		gen:           gen,
		now:           time.Now,
		base:          s,
		name:          p.Name,
		settings:      s,
		userID:        userID,
		context:       Context{Patterns: make(map[PatternKind][]string)},
		relationships: NewRelationshipTracker(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) ID() string { return a.persona.ID }

func (a *Agent) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// Configure applies an override on top of the settings the agent was built
// with. Zero fields keep the base value.
func (a *Agent) Configure(def config.AgentDefinition) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.name = a.persona.Name
	if def.Name != "" {
		a.name = def.Name
	}
	a.settings = a.base
	if def.Model != "" {
		a.settings.Model = def.Model
	}
	if def.Temperature != 0 {
		a.settings.Temperature = def.Temperature
	}
	if def.MaxTokens != 0 {
		a.settings.MaxTokens = def.MaxTokens
	}
}

func (a *Agent) SetPreferences(p Preferences) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.preferences = p.clone()
}

// ProcessRequest answers text. Generation failures produce a degraded
// response instead of an error.
func (a *Agent) ProcessRequest(ctx context.Context, text string, rc RequestContext) Response {
	ctx, span := tracer.Start(ctx, "agent.process_request")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", a.ID()))
	if rc.WorkflowID != "" {
		span.SetAttributes(attribute.String("workflow.id", rc.WorkflowID))
	}

	mem, settings, name := a.promptState()
	prompt := requestPrompt(contextBlock(&mem, a.persona.PatternKind, rc), text)

	resp, err := a.generate(ctx, name, settings, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	a.record(ctx, training.KindProcessRequest, rc, prompt, resp, err)
	return resp
}

// CollaborateWith answers a request from another agent. The only error it
// returns is the context's.
func (a *Agent) CollaborateWith(ctx context.Context, requestingID, text string, rc RequestContext) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	ctx, span := tracer.Start(ctx, "agent.collaborate")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.id", a.ID()),
		attribute.String("agent.requesting_id", requestingID),
	)

	mem, settings, name := a.promptState()
	prompt := collaborationPrompt(contextBlock(&mem, a.persona.PatternKind, rc), requestingID, text)

	resp, err := a.generate(ctx, name, settings, prompt)
	a.record(ctx, training.KindCollaboration, rc, prompt, resp, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, fmt.Errorf("collaborate with %s: %w", a.ID(), ctxErr)
		}
	}
	return resp, nil
}

func (a *Agent) generate(ctx context.Context, name string, s Settings, prompt string) (Response, error) {
	out, err := a.gen.Generate(ctx, llm.Request{
		Prompt:       prompt,
		SystemPrompt: systemPrompt(a.persona, name),
		Model:        s.Model,
		Temperature:  s.Temperature,
		MaxTokens:    s.MaxTokens,
	})
	if err != nil {
		slog.Warn("agent generation failed", "agent", a.ID(), "error", err)
		return a.degraded(err), err
	}
	return parseResponse(a.ID(), out.Text), nil
}

func (a *Agent) degraded(err error) Response {
	return Response{
		AgentID:               a.ID(),
		Content:               fmt.Sprintf("I'm having trouble putting together a full answer right now (%v). Please try again in a moment.", err),
		Confidence:            DegradedConfidence,
		Reasoning:             "text generation failed",
		SuggestedActions:      []string{},
		CollaborationRequests: []CollaborationRequest{},
		FollowUpTasks:         []Task{},
		Degraded:              true,
	}
}

func (a *Agent) record(ctx context.Context, kind training.Kind, rc RequestContext, prompt string, resp Response, genErr error) {
	in := training.Interaction{
		AgentID:    a.ID(),
		UserID:     rc.UserID,
		Kind:       kind,
		Prompt:     prompt,
		Response:   resp.Content,
		Confidence: resp.Confidence,
		Success:    genErr == nil,
	}
	if in.UserID == "" {
		in.UserID = a.userID
	}
	if genErr != nil {
		in.Error = genErr.Error()
	}
	a.RecordTrainingData(ctx, in)
}

// RecordTrainingData hands in to the recorder. Failures are logged only.
func (a *Agent) RecordTrainingData(ctx context.Context, in training.Interaction) {
	if a.recorder == nil {
		return
	}
	if _, err := a.recorder.Record(ctx, in); err != nil {
		slog.Warn("record training data failed", "agent", a.ID(), "error", err)
	}
}

// UpdateRelationship records the outcome of an interaction with agentID.
func (a *Agent) UpdateRelationship(agentID, interaction string, outcome Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.relationships.Update(agentID, interaction, outcome, a.now())
}

func (a *Agent) Relationship(agentID string) (Relationship, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.relationships.Get(agentID)
}

// LearnFromInteraction appends to the bounded history. Successful
// interactions also feed the persona's pattern list.
func (a *Agent) LearnFromInteraction(interaction string, outcome Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = appendBounded(a.history, HistoryEntry{
		Timestamp:   a.now(),
		Interaction: interaction,
		Outcome:     outcome,
	}, MaxHistory)

	if outcome.Success && a.persona.PatternKind != "" {
		if a.context.Patterns == nil {
			a.context.Patterns = make(map[PatternKind][]string)
		}
		kind := a.persona.PatternKind
		a.context.Patterns[kind] = appendBounded(a.context.Patterns[kind], interaction, MaxPatterns)
	}
}

func (a *Agent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		ID:           a.persona.ID,
		Name:         a.name,
		Role:         a.persona.Role,
		Capabilities: a.persona.clone().Capabilities,
		Settings:     a.settings,
		Memory:       a.memoryLocked(),
	}
}

// Restore replaces the agent's memory with m, enforcing the history bound.
func (a *Agent) Restore(m Memory) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.context = m.Context.clone()
	if a.context.Patterns == nil {
		a.context.Patterns = make(map[PatternKind][]string)
	}
	a.preferences = m.Preferences.clone()
	a.history = append([]HistoryEntry(nil), tail(m.History, MaxHistory)...)
	a.relationships.Restore(m.Relationships)
}

func (a *Agent) promptState() (Memory, Settings, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.memoryLocked(), a.settings, a.name
}

func (a *Agent) memoryLocked() Memory {
	return Memory{
		UserID:        a.userID,
		Context:       a.context.clone(),
		Preferences:   a.preferences.clone(),
		History:       append([]HistoryEntry{}, a.history...),
		Relationships: a.relationships.Snapshot(),
	}
}
