// Package web serves the chat contract over HTTP and websockets.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/natsbus"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/orchestrator"
)

const userHeader = "X-User-ID"

// TrainingStats reports interactions the training recorder had to drop.
type TrainingStats interface {
	Dropped() int64
}

type Server struct {
	manager   *orchestrator.Manager
	nats      *natsbus.Client
	training  TrainingStats
	hub       *Hub
	cfg       config.WebConfig
	version   string
	startedAt time.Time
}

// NewServer creates the HTTP server. nc and training may be nil.
func NewServer(m *orchestrator.Manager, nc *natsbus.Client, training TrainingStats, cfg config.WebConfig, version string) *Server {
	return &Server{
		manager:   m,
		nats:      nc,
		training:  training,
		hub:       NewHub(),
		cfg:       cfg,
		version:   version,
		startedAt: time.Now(),
	}
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerAPI(mux)
	mux.HandleFunc("GET /api/chat/ws", s.handleChatStream)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	return s.withMiddleware(mux)
}

func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	// Subscribe to NATS events and broadcast to WebSocket
	sub := s.subscribeEvents()
	if sub != nil {
		defer sub.Unsubscribe()
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	server := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	slog.Info("web server listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+userHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// session resolves the orchestrator of the calling user: the X-User-ID
// header, then the user query parameter, then the configured default.
func (s *Server) session(r *http.Request) (*orchestrator.Orchestrator, error) {
	user := strings.TrimSpace(r.Header.Get(userHeader))
	if user == "" {
		user = r.URL.Query().Get("user")
	}
	return s.manager.Session(user)
}

func (s *Server) subscribeEvents() *nats.Subscription {
	if s.nats == nil {
		return nil
	}

	// Forward all event topics to WebSocket clients
	sub, err := s.nats.Subscribe(natsbus.TopicEventsAll, func(msg *nats.Msg) {
		var event natsbus.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("invalid NATS event payload", "subject", msg.Subject, "error", err)
			return
		}
		s.hub.Broadcast(event)
	})
	if err != nil {
		slog.Error("subscribe to events failed", "error", err)
		return nil
	}
	return sub
}
