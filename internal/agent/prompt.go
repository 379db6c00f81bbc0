package agent

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	promptHistory  = 5
	promptPatterns = 5
)

const responseFormat = `Respond with a single JSON object and nothing else:
{
  "content": "your answer to the user",
  "confidence": 0.0-1.0,
  "reasoning": "why you answered this way",
  "suggested_actions": ["..."],
  "collaboration_requests": [{"agent_id": "<agent id>", "request": "what you need from them"}],
  "follow_up_tasks": [{
    "type": "...",
    "priority": "low|medium|high|critical",
    "assigned_to": "<agent id>",
    "dependencies": ["<agent id or task id>"],
    "expected_outcome": "...",
    "deadline": "RFC3339 timestamp, optional"
  }]
}
Leave lists empty when they do not apply.`

func systemPrompt(p Persona, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, %s, part of a team of AI agents supporting a solo founder.\n", name, strings.ToLower(p.Role))
	if len(p.Capabilities.Specializations) > 0 {
		fmt.Fprintf(&sb, "Specializations: %s.\n", strings.Join(p.Capabilities.Specializations, ", "))
	}
	if len(p.Capabilities.Frameworks) > 0 {
		fmt.Fprintf(&sb, "Frameworks you apply: %s.\n", strings.Join(p.Capabilities.Frameworks, ", "))
	}
	if len(p.Capabilities.Tools) > 0 {
		fmt.Fprintf(&sb, "Tools you can offer: %s.\n", strings.Join(p.Capabilities.Tools, ", "))
	}
	if p.Capabilities.CollaborationStyle != "" {
		fmt.Fprintf(&sb, "Collaboration style: %s.\n", p.Capabilities.CollaborationStyle)
	}

	sb.WriteString("\nTeam members you may ask for help or assign follow-up tasks to:\n")
	for _, peer := range catalog {
		if peer.ID == p.ID {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", peer.ID, peer.Role)
	}
	sb.WriteString("\n")
	sb.WriteString(responseFormat)
	return sb.String()
}

// contextBlock renders what the agent knows about the user and its peers.
func contextBlock(m *Memory, kind PatternKind, rc RequestContext) string {
	var sb strings.Builder

	if m.Preferences.CommunicationStyle != "" || m.Preferences.DetailLevel != "" {
		sb.WriteString("## User preferences\n")
		if m.Preferences.CommunicationStyle != "" {
			fmt.Fprintf(&sb, "- Communication style: %s\n", m.Preferences.CommunicationStyle)
		}
		if m.Preferences.DetailLevel != "" {
			fmt.Fprintf(&sb, "- Detail level: %s\n", m.Preferences.DetailLevel)
		}
		sb.WriteString("\n")
	}

	if patterns := m.Context.Patterns[kind]; len(patterns) > 0 {
		sb.WriteString("## Patterns you have learned\n")
		for _, p := range tail(patterns, promptPatterns) {
			fmt.Fprintf(&sb, "- %s\n", p)
		}
		sb.WriteString("\n")
	}

	if len(m.History) > 0 {
		sb.WriteString("## Recent interactions\n")
		for _, h := range tail(m.History, promptHistory) {
			status := "ok"
			if !h.Outcome.Success {
				status = "failed"
			}
			fmt.Fprintf(&sb, "- [%s] %s\n", status, h.Interaction)
		}
		sb.WriteString("\n")
	}

	if len(m.Relationships) > 0 {
		sb.WriteString("## Trust in teammates\n")
		for _, id := range slices.Sorted(maps.Keys(m.Relationships)) {
			fmt.Fprintf(&sb, "- %s: %.2f\n", id, m.Relationships[id].TrustLevel)
		}
		sb.WriteString("\n")
	}

	if rc.WorkflowID != "" {
		fmt.Fprintf(&sb, "## Workflow\nYou are executing a step of workflow %s.\n\n", rc.WorkflowID)
	}
	if len(rc.Extra) > 0 {
		sb.WriteString("## Additional context\n")
		for _, k := range slices.Sorted(maps.Keys(rc.Extra)) {
			fmt.Fprintf(&sb, "- %s: %v\n", k, rc.Extra[k])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func requestPrompt(block, text string) string {
	return block + "## Request\n" + text
}

func collaborationPrompt(block, requestingID, text string) string {
	return block + fmt.Sprintf("## Collaboration request from %s\n%s\n\nAnswer as a teammate: give %s what they need to finish their work.", requestingID, text, requestingID)
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
