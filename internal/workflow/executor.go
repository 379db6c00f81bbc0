package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/prettyinpurple2021/solosuccess-ai/internal/workflow")

type Executor struct {
	store       Store
	agents      Directory
	events      Events
	stepTimeout time.Duration

	mu      sync.Mutex
	running map[string]bool
}

// NewExecutor creates an executor. events may be nil; a zero stepTimeout
// leaves steps unbounded.
func NewExecutor(s Store, agents Directory, events Events, stepTimeout time.Duration) *Executor {
	return &Executor{
		store:       s,
		agents:      agents,
		events:      events,
		stepTimeout: stepTimeout,
		running:     make(map[string]bool),
	}
}

// ExecuteWorkflow runs the workflow to completion. Failures of the workflow
// itself are reported through its status and Error field; the returned
// error covers lookups, store failures, workflows that cannot start and
// cancellation of ctx, which leaves the workflow resumable.
func (e *Executor) ExecuteWorkflow(ctx context.Context, workflowID string) (*Workflow, error) {
	wf, err := e.store.Get(workflowID)
	if err != nil {
		return nil, err
	}
	if wf.Status.Terminal() {
		return wf, fmt.Errorf("%w: %s is %s", ErrWorkflowTerminal, wf.ID, wf.Status)
	}
	if !e.claim(wf.ID) {
		return wf, fmt.Errorf("%w: %s", ErrWorkflowRunning, wf.ID)
	}
	defer e.release(wf.ID)

	ctx, span := tracer.Start(ctx, "workflow.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("workflow.id", wf.ID),
		attribute.Int("workflow.steps", len(wf.Steps)),
	)

	if wf.Results == nil {
		wf.Results = make(map[string]agent.Response)
	}

	// Steps completed by an earlier interrupted run are kept.
	completed := make(map[string]bool)
	var remaining []int
	for i := range wf.Steps {
		if wf.Steps[i].Status == agent.TaskCompleted {
			markCompleted(completed, wf.Steps[i])
			continue
		}
		wf.Steps[i].Status = agent.TaskPending
		remaining = append(remaining, i)
	}

	wf.Status = StatusInProgress
	wf.Error = ""
	if err := e.save(wf); err != nil {
		return nil, err
	}
	slog.Info("starting workflow", "id", wf.ID, "steps", len(wf.Steps), "remaining", len(remaining))
	e.publish(wf.ID, "workflow_started", map[string]any{
		"name":  wf.Name,
		"steps": len(wf.Steps),
	})

	for round := 0; len(remaining) > 0; round++ {
		ready, blocked := nextRound(wf.Steps, remaining, completed)
		if len(ready) == 0 {
			return e.fail(span, wf, unsatisfiable(wf.Steps, blocked))
		}

		for _, idx := range ready {
			wf.Steps[idx].Status = agent.TaskRunning
		}
		if err := e.save(wf); err != nil {
			return nil, err
		}

		slog.Info("executing round", "workflow", wf.ID, "round", round, "steps", len(ready))
		results, failed, err := e.runRound(ctx, wf, round, ready)
		if err != nil {
			for _, idx := range ready {
				wf.Steps[idx].Status = agent.TaskPending
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return e.interrupt(wf, round, ctxErr)
			}
			if failed >= 0 {
				wf.Steps[failed].Status = agent.TaskFailed
			}
			return e.fail(span, wf, fmt.Errorf("round %d: %w", round, err))
		}

		for i, idx := range ready {
			step := &wf.Steps[idx]
			step.Status = agent.TaskCompleted
			wf.Results[step.AgentID] = results[i]
			markCompleted(completed, *step)
			if a, ok := e.agents.Lookup(step.AgentID); ok {
				a.LearnFromInteraction(step.Task, agent.Outcome{Success: !results[i].Degraded})
			}
		}
		remaining = blocked

		if err := e.save(wf); err != nil {
			return nil, err
		}
		e.publish(wf.ID, "workflow_round_completed", map[string]any{
			"round":     round,
			"steps":     len(ready),
			"remaining": len(remaining),
		})
	}

	wf.Status = StatusCompleted
	if err := e.save(wf); err != nil {
		return nil, err
	}
	slog.Info("workflow completed", "id", wf.ID, "results", len(wf.Results))
	e.publish(wf.ID, "workflow_completed", map[string]any{"results": len(wf.Results)})
	return wf, nil
}

// runRound runs the ready steps concurrently and waits for all of them. The
// first failure cancels the siblings; failed is the index of the failing
// step or -1.
func (e *Executor) runRound(ctx context.Context, wf *Workflow, round int, ready []int) ([]agent.Response, int, error) {
	ctx, span := tracer.Start(ctx, "workflow.round")
	defer span.End()
	span.SetAttributes(attribute.Int("workflow.round", round), attribute.Int("workflow.round_steps", len(ready)))

	results := make([]agent.Response, len(ready))
	errs := make([]error, len(ready))

	g, gctx := errgroup.WithContext(ctx)
	for i, idx := range ready {
		step := wf.Steps[idx]
		g.Go(func() error {
			resp, err := e.runStep(gctx, wf, step)
			if err != nil {
				errs[i] = err
				return fmt.Errorf("step %s (%s): %w", step.key(), step.AgentID, err)
			}
			results[i] = resp
			e.publish(wf.ID, "workflow_step_completed", map[string]any{
				"round":      round,
				"agent_id":   step.AgentID,
				"task_id":    step.TaskID,
				"confidence": resp.Confidence,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, firstCause(ready, errs), err
	}
	return results, -1, nil
}

// firstCause picks the step whose own failure aborted the round rather than
// a sibling that only saw the cancellation.
func firstCause(ready []int, errs []error) int {
	fallback := -1
	for i, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return ready[i]
		}
		if fallback < 0 {
			fallback = ready[i]
		}
	}
	return fallback
}

func (e *Executor) runStep(ctx context.Context, wf *Workflow, step Step) (agent.Response, error) {
	a, ok := e.agents.Lookup(step.AgentID)
	if !ok {
		return agent.Response{}, fmt.Errorf("%w: %s", ErrAgentMissing, step.AgentID)
	}

	if timeout := e.StepTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp := a.ProcessRequest(ctx, step.Task, agent.RequestContext{
		UserID:     wf.UserID,
		WorkflowID: wf.ID,
		StepID:     step.AgentID,
	})
	if err := ctx.Err(); err != nil {
		return agent.Response{}, err
	}
	return resp, nil
}

// interrupt leaves the workflow in progress with the aborted round pending,
// so a later run resumes after the steps already completed.
func (e *Executor) interrupt(wf *Workflow, round int, cause error) (*Workflow, error) {
	slog.Warn("workflow interrupted", "id", wf.ID, "round", round, "error", cause)
	if err := e.save(wf); err != nil {
		return nil, err
	}
	e.publish(wf.ID, "workflow_interrupted", map[string]any{"round": round})
	return wf, fmt.Errorf("workflow %s interrupted: %w", wf.ID, cause)
}

func (e *Executor) fail(span trace.Span, wf *Workflow, cause error) (*Workflow, error) {
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())

	wf.Status = StatusFailed
	wf.Error = cause.Error()
	slog.Warn("workflow failed", "id", wf.ID, "error", cause)
	if err := e.save(wf); err != nil {
		return nil, err
	}
	e.publish(wf.ID, "workflow_failed", map[string]any{"error": wf.Error})
	return wf, nil
}

func (e *Executor) save(wf *Workflow) error {
	wf.UpdatedAt = time.Now().UTC()
	if wf.Status.Terminal() && wf.CompletedAt == nil {
		t := wf.UpdatedAt
		wf.CompletedAt = &t
	}
	if err := e.store.Save(wf); err != nil {
		return fmt.Errorf("save workflow %s: %w", wf.ID, err)
	}
	return nil
}

func (e *Executor) publish(workflowID, eventType string, data map[string]any) {
	if e.events == nil {
		return
	}
	e.events.WorkflowEvent(workflowID, eventType, data)
}

func (e *Executor) claim(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[id] {
		return false
	}
	e.running[id] = true
	return true
}

func (e *Executor) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, id)
}

func (e *Executor) StepTimeout() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepTimeout
}

// SetStepTimeout changes the bound for steps started afterwards.
func (e *Executor) SetStepTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepTimeout = d
}

// Running reports whether the workflow is executing in this executor.
func (e *Executor) Running(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running[id]
}
