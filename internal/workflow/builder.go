package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
)

type Builder struct {
	store Store
	now   func() time.Time
}

func NewBuilder(s Store) *Builder {
	return &Builder{store: s, now: time.Now}
}

// ShouldCreateWorkflow reports whether the responses warrant a tracked
// workflow: the primary proposed follow-up tasks or more than one agent
// collaborated.
func ShouldCreateWorkflow(primary agent.Response, collaborations []agent.Response) bool {
	return len(primary.FollowUpTasks) > 0 || len(collaborations) > 1
}

// CreateWorkflow flattens the follow-up tasks of all responses into a
// pending workflow and saves it.
func (b *Builder) CreateWorkflow(name, userID string, primary agent.Response, collaborations []agent.Response) (*Workflow, error) {
	now := b.now().UTC()
	wf := &Workflow{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Steps:     []Step{},
		Status:    StatusPending,
		Results:   make(map[string]agent.Response),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, resp := range append([]agent.Response{primary}, collaborations...) {
		for _, t := range resp.FollowUpTasks {
			wf.Steps = append(wf.Steps, stepFromTask(t))
		}
	}

	// Unsatisfiable graphs are still stored; execution fails them.
	if _, err := Rounds(wf.Steps); errors.Is(err, ErrUnsatisfiable) {
		slog.Warn("workflow has unsatisfiable dependencies", "id", wf.ID, "error", err)
	}

	if err := b.store.Save(wf); err != nil {
		return nil, fmt.Errorf("save workflow: %w", err)
	}
	slog.Info("workflow created", "id", wf.ID, "user", userID, "steps", len(wf.Steps))
	return wf, nil
}

func stepFromTask(t agent.Task) Step {
	return Step{
		AgentID:         t.AssignedTo,
		TaskID:          t.ID,
		Task:            t.ExpectedOutcome,
		Dependencies:    append([]string{}, t.Dependencies...),
		ExpectedOutcome: t.ExpectedOutcome,
		Priority:        t.Priority,
		Status:          agent.TaskPending,
	}
}
