// Package collab resolves the collaboration requests of a primary response.
package collab

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/prettyinpurple2021/solosuccess-ai/internal/collab")

// Directory resolves agent ids. A missing agent is reported with ok=false.
type Directory interface {
	Lookup(agentID string) (*agent.Agent, bool)
}

type Stats struct {
	Total      int64 `json:"total"`
	Successful int64 `json:"successful"`
	Skipped    int64 `json:"skipped"`
}

type Coordinator struct {
	agents Directory

	total      atomic.Int64
	successful atomic.Int64
	skipped    atomic.Int64
}

func NewCoordinator(agents Directory) *Coordinator {
	return &Coordinator{agents: agents}
}

// HandleCollaborationRequests asks each target agent in order. Missing
// targets are skipped and failures are recorded as a relationship penalty
// on the target; neither stops the remaining requests.
func (c *Coordinator) HandleCollaborationRequests(ctx context.Context, requests []agent.CollaborationRequest, requestingID string, rc agent.RequestContext) []agent.Response {
	ctx, span := tracer.Start(ctx, "collab.handle_requests")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.requesting_id", requestingID),
		attribute.Int("collab.requests", len(requests)),
	)

	responses := make([]agent.Response, 0, len(requests))
	for _, req := range requests {
		target, ok := c.agents.Lookup(req.AgentID)
		if !ok {
			c.skipped.Add(1)
			slog.Warn("collaboration target not found", "agent", req.AgentID, "requested_by", requestingID)
			continue
		}

		c.total.Add(1)
		resp, err := target.CollaborateWith(ctx, requestingID, req.Request, rc)
		if err != nil {
			slog.Warn("collaboration failed", "agent", req.AgentID, "requested_by", requestingID, "error", err)
			target.UpdateRelationship(requestingID, req.Request, agent.Outcome{Success: false, Error: err.Error()})
			continue
		}

		c.successful.Add(1)
		responses = append(responses, resp)
		target.UpdateRelationship(requestingID, req.Request, agent.Outcome{Success: true})
	}

	span.SetAttributes(attribute.Int("collab.responses", len(responses)))
	return responses
}

func (c *Coordinator) Stats() Stats {
	return Stats{
		Total:      c.total.Load(),
		Successful: c.successful.Load(),
		Skipped:    c.skipped.Load(),
	}
}
