package natsbus

import (
	"log/slog"
	"time"
)

// Event is the envelope of everything published under events.>.
type Event struct {
	Type       string         `json:"type"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher publishes workflow, chat and agent events. A nil client drops them.
type Publisher struct {
	client *Client
}

func NewPublisher(c *Client) *Publisher {
	return &Publisher{client: c}
}

func (p *Publisher) WorkflowEvent(workflowID, eventType string, data map[string]any) {
	p.publish(TopicEventsWorkflow(workflowID), Event{
		Type:       eventType,
		WorkflowID: workflowID,
		Data:       data,
	})
}

func (p *Publisher) ChatEvent(userID, eventType string, data map[string]any) {
	p.publish(TopicEventsChat(userID), Event{
		Type:   eventType,
		UserID: userID,
		Data:   data,
	})
}

func (p *Publisher) AgentEvent(agentID, eventType string, data map[string]any) {
	p.publish(TopicEventsAgent(agentID), Event{
		Type:    eventType,
		AgentID: agentID,
		Data:    data,
	})
}

func (p *Publisher) publish(topic string, ev Event) {
	if p == nil || p.client == nil {
		return
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if err := p.client.PublishJSON(topic, ev); err != nil {
		slog.Debug("publish event failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
