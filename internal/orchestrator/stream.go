package orchestrator

// Stream event types, in the order they are emitted.
const (
	EventPrimaryResponse       = "primary_response"
	EventCollaborationResponse = "collaboration_response"
	EventWorkflowCreated       = "workflow_created"
	EventDone                  = "done"
	EventError                 = "error"
)

// StreamEvent is one part of a streamed chat answer. Index is set on
// collaboration responses only.
type StreamEvent struct {
	Type    string `json:"type"`
	Index   *int   `json:"index,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func intPtr(i int) *int { return &i }
