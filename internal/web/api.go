package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/orchestrator"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/workflow"
)

const maxChatBody = 1 << 20

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Chat
	mux.HandleFunc("POST /api/chat", s.handleChat)

	// Agents
	mux.HandleFunc("GET /api/agents", s.listAgents)

	// Workflows
	mux.HandleFunc("GET /api/workflows", s.listWorkflows)
	mux.HandleFunc("GET /api/workflows/{id}", s.getWorkflow)
	mux.HandleFunc("POST /api/workflows/{id}/execute", s.executeWorkflow)

	// System
	mux.HandleFunc("GET /api/insights", s.getInsights)
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	o, err := s.session(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req orchestrator.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := o.HandleChatRequest(r.Context(), req)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	jsonResponse(w, res)
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	o, err := s.session(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, o.ListAgents())
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	o, err := s.session(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	wfs, err := o.ListWorkflows(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if wfs == nil {
		wfs = []*workflow.Workflow{}
	}
	jsonResponse(w, wfs)
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	o, err := s.session(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	wf, err := o.GetWorkflow(r.Context(), r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	jsonResponse(w, wf)
}

func (s *Server) executeWorkflow(w http.ResponseWriter, r *http.Request) {
	o, err := s.session(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// A dropped client must not interrupt the run.
	wf, err := o.ExecuteWorkflow(context.WithoutCancel(r.Context()), r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	jsonResponse(w, wf)
}

func (s *Server) getInsights(w http.ResponseWriter, r *http.Request) {
	o, err := s.session(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	in, err := o.Insights(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, in)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	natsStatus := "disabled"
	if s.nats != nil {
		natsStatus = "ok"
	}

	status := map[string]any{
		"status":         "ok",
		"sessions":       len(s.manager.Users()),
		"default_agent":  s.manager.Router().DefaultAgent(),
		"collaborations": s.manager.CollaborationStats(),
		"event_clients":  s.hub.Clients(),
		"uptime":         formatUptime(time.Since(s.startedAt)),
		"nats":           natsStatus,
		"timestamp":      time.Now().UTC(),
		"version":        s.version,
	}
	if s.training != nil {
		status["training_dropped"] = s.training.Dropped()
	}

	jsonResponse(w, status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrAgentNotFound), errors.Is(err, workflow.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrWorkflowTerminal), errors.Is(err, workflow.ErrWorkflowRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
