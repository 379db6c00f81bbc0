package agent

import "time"

type Capabilities struct {
	Frameworks         []string `json:"frameworks"`
	Specializations    []string `json:"specializations"`
	Tools              []string `json:"tools"`
	CollaborationStyle string   `json:"collaboration_style"`
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is a unit of follow-up work proposed by an agent. Dependencies hold
// agent ids or task ids of other tasks in the same workflow.
type Task struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Priority        Priority       `json:"priority"`
	AssignedTo      string         `json:"assigned_to"`
	Dependencies    []string       `json:"dependencies"`
	Context         map[string]any `json:"context,omitempty"`
	ExpectedOutcome string         `json:"expected_outcome"`
	Deadline        *time.Time     `json:"deadline,omitempty"`
	Status          TaskStatus     `json:"status"`
}

type CollaborationRequest struct {
	AgentID string `json:"agent_id"`
	Request string `json:"request"`
}

// Response is the structured answer of one agent call. It is not modified
// after it is returned.
type Response struct {
	AgentID               string                 `json:"agent_id"`
	Content               string                 `json:"content"`
	Confidence            float64                `json:"confidence"`
	Reasoning             string                 `json:"reasoning"`
	SuggestedActions      []string               `json:"suggested_actions"`
	CollaborationRequests []CollaborationRequest `json:"collaboration_requests"`
	FollowUpTasks         []Task                 `json:"follow_up_tasks"`
	// Degraded marks a response produced after the generator failed.
	Degraded bool `json:"degraded,omitempty"`
}

// RequestContext is the caller-supplied context of a request.
type RequestContext struct {
	UserID     string         `json:"user_id,omitempty"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	StepID     string         `json:"step_id,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
