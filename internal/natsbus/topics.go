package natsbus

import "fmt"

// Topic patterns for event fan-out.

func TopicEventsWorkflow(workflowID string) string {
	return fmt.Sprintf("events.workflow.%s", workflowID)
}

func TopicEventsChat(userID string) string {
	return fmt.Sprintf("events.chat.%s", userID)
}

func TopicEventsAgent(agentID string) string {
	return fmt.Sprintf("events.agent.%s", agentID)
}

const (
	TopicEventsAll       = "events.>"
	TopicEventsWorkflows = "events.workflow.*"
	TopicEventsChats     = "events.chat.*"
	TopicEventsAgents    = "events.agent.*"
)
