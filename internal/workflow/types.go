// Package workflow materializes follow-up tasks as dependency-ordered
// workflows and executes them round by round.
package workflow

import (
	"errors"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrWorkflowTerminal = errors.New("workflow already finished")
	ErrWorkflowRunning  = errors.New("workflow already running")
	ErrUnsatisfiable    = errors.New("workflow dependencies cannot be satisfied")
	ErrAgentMissing     = errors.New("workflow step agent not found")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether a workflow in this status may no longer run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Step is one task of a workflow. Dependencies name agent ids or task ids
// of other steps.
type Step struct {
	AgentID         string           `json:"agent_id"`
	TaskID          string           `json:"task_id,omitempty"`
	Task            string           `json:"task"`
	Dependencies    []string         `json:"dependencies"`
	ExpectedOutcome string           `json:"expected_outcome"`
	Priority        agent.Priority   `json:"priority,omitempty"`
	Status          agent.TaskStatus `json:"status"`
}

// key is the label used in errors and events.
func (s Step) key() string {
	if s.TaskID != "" {
		return s.TaskID
	}
	return s.AgentID
}

type Workflow struct {
	ID          string                    `json:"id"`
	UserID      string                    `json:"user_id"`
	Name        string                    `json:"name"`
	Steps       []Step                    `json:"steps"`
	Status      Status                    `json:"status"`
	Results     map[string]agent.Response `json:"results"`
	Error       string                    `json:"error,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
	CompletedAt *time.Time                `json:"completed_at,omitempty"`
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Store persists workflows. Get returns ErrWorkflowNotFound for unknown ids.
type Store interface {
	Save(wf *Workflow) error
	Get(id string) (*Workflow, error)
	// List returns the workflows of userID newest first; "" lists all users.
	List(userID string) ([]*Workflow, error)
	ListByStatus(status Status) ([]*Workflow, error)
	Stats(userID string) (Stats, error)
}

// Directory resolves the agent that runs a step.
type Directory interface {
	Lookup(agentID string) (*agent.Agent, bool)
}

// Events receives workflow lifecycle events.
type Events interface {
	WorkflowEvent(workflowID, eventType string, data map[string]any)
}
