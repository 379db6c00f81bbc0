package router

import (
	"strings"
	"sync"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
)

// Route is one keyword group and the agent it selects.
type Route struct {
	AgentID  string
	Keywords []string
}

// routes are checked in order; the first group with a matching keyword wins.
var routes = []Route{
	{AgentID: "roxy", Keywords: []string{"decision", "strategy", "plan"}},
	{AgentID: "blaze", Keywords: []string{"growth", "sales", "revenue"}},
	{AgentID: "echo", Keywords: []string{"marketing", "content", "brand"}},
	{AgentID: "lumi", Keywords: []string{"legal", "compliance", "policy"}},
	{AgentID: "vex", Keywords: []string{"technical", "system", "code"}},
	{AgentID: "lexi", Keywords: []string{"data", "analysis", "metrics"}},
	{AgentID: "nova", Keywords: []string{"design", "ui", "ux"}},
	{AgentID: "glitch", Keywords: []string{"problem", "bug", "issue"}},
}

type Router struct {
	defaultAgent string
	mu           sync.RWMutex
}

func New(cfg config.RouterConfig) *Router {
	def := cfg.DefaultAgent
	if def == "" {
		def = "roxy"
	}
	return &Router{defaultAgent: def}
}

// Route picks the agent for message by keyword, falling back to the
// default agent. Keywords match anywhere in the lower-cased text.
func (r *Router) Route(message string) string {
	text := strings.ToLower(message)
	for _, route := range routes {
		for _, kw := range route.Keywords {
			if strings.Contains(text, kw) {
				return route.AgentID
			}
		}
	}
	return r.DefaultAgent()
}

// Resolve returns explicitAgentID, normalized like collaboration targets,
// when set, otherwise routes message.
func (r *Router) Resolve(explicitAgentID, message string) string {
	if id := strings.ToLower(strings.TrimSpace(explicitAgentID)); id != "" {
		return id
	}
	return r.Route(message)
}

// Routes returns a copy of the keyword groups in match order.
func Routes() []Route {
	out := make([]Route, len(routes))
	for i, rt := range routes {
		out[i] = Route{AgentID: rt.AgentID, Keywords: append([]string(nil), rt.Keywords...)}
	}
	return out
}

func (r *Router) DefaultAgent() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultAgent
}

// SetDefaultAgent updates the default agent used for routing.
func (r *Router) SetDefaultAgent(agent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultAgent = agent
}
