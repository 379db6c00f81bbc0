package agent

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultConfidence is used when generated text carries no confidence.
const DefaultConfidence = 0.7

type rawTask struct {
	Type            string         `json:"type"`
	Priority        string         `json:"priority"`
	AssignedTo      string         `json:"assigned_to"`
	Dependencies    []string       `json:"dependencies"`
	Context         map[string]any `json:"context"`
	ExpectedOutcome string         `json:"expected_outcome"`
	Deadline        string         `json:"deadline"`
}

type rawResponse struct {
	Content               string                 `json:"content"`
	Confidence            *float64               `json:"confidence"`
	Reasoning             string                 `json:"reasoning"`
	SuggestedActions      []string               `json:"suggested_actions"`
	CollaborationRequests []CollaborationRequest `json:"collaboration_requests"`
	FollowUpTasks         []rawTask              `json:"follow_up_tasks"`
}

// parseResponse turns generated text into a Response. Text that does not
// contain a JSON object becomes the content verbatim.
func parseResponse(agentID, text string) Response {
	text = strings.TrimSpace(text)
	resp := Response{
		AgentID:               agentID,
		Content:               text,
		Confidence:            DefaultConfidence,
		SuggestedActions:      []string{},
		CollaborationRequests: []CollaborationRequest{},
		FollowUpTasks:         []Task{},
	}

	raw, ok := decodeObject(text)
	if !ok {
		return resp
	}

	if c := strings.TrimSpace(raw.Content); c != "" {
		resp.Content = c
	}
	if raw.Confidence != nil {
		resp.Confidence = clamp01(*raw.Confidence)
	}
	resp.Reasoning = strings.TrimSpace(raw.Reasoning)

	for _, a := range raw.SuggestedActions {
		if a = strings.TrimSpace(a); a != "" {
			resp.SuggestedActions = append(resp.SuggestedActions, a)
		}
	}
	for _, cr := range raw.CollaborationRequests {
		cr.AgentID = strings.ToLower(strings.TrimSpace(cr.AgentID))
		if cr.AgentID == "" || cr.AgentID == agentID || strings.TrimSpace(cr.Request) == "" {
			continue
		}
		resp.CollaborationRequests = append(resp.CollaborationRequests, cr)
	}
	for _, rt := range raw.FollowUpTasks {
		if t, ok := newTask(agentID, rt); ok {
			resp.FollowUpTasks = append(resp.FollowUpTasks, t)
		}
	}
	return resp
}

func decodeObject(text string) (rawResponse, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return rawResponse{}, false
	}
	var raw rawResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return rawResponse{}, false
	}
	return raw, true
}

func newTask(agentID string, rt rawTask) (Task, bool) {
	outcome := strings.TrimSpace(rt.ExpectedOutcome)
	if outcome == "" {
		outcome = strings.TrimSpace(rt.Type)
	}
	if outcome == "" {
		return Task{}, false
	}

	t := Task{
		ID:              uuid.New().String(),
		Type:            strings.TrimSpace(rt.Type),
		Priority:        Priority(strings.ToLower(strings.TrimSpace(rt.Priority))),
		AssignedTo:      strings.ToLower(strings.TrimSpace(rt.AssignedTo)),
		Dependencies:    []string{},
		Context:         rt.Context,
		ExpectedOutcome: outcome,
		Status:          TaskPending,
	}
	if !t.Priority.Valid() {
		t.Priority = PriorityMedium
	}
	if t.AssignedTo == "" {
		t.AssignedTo = agentID
	}
	for _, d := range rt.Dependencies {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			t.Dependencies = append(t.Dependencies, d)
		}
	}
	if rt.Deadline != "" {
		if d, err := time.Parse(time.RFC3339, rt.Deadline); err == nil {
			t.Deadline = &d
		}
	}
	return t, true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
