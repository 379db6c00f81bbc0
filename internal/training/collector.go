// Package training captures agent interactions for later fine-tuning. Recording
// never blocks the caller: interactions are queued and persisted by a
// background worker, and a full queue drops the interaction.
package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/vault"
)

type Kind string

const (
	KindProcessRequest Kind = "process_request"
	KindCollaboration  Kind = "collaboration"
)

// Interaction is one prompt/response exchange of an agent.
type Interaction struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	UserID     string    `json:"user_id"`
	Kind       Kind      `json:"kind"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Confidence float64   `json:"confidence"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder accepts interactions and returns the id assigned to them.
type Recorder interface {
	Record(ctx context.Context, in Interaction) (string, error)
}

var (
	ErrBufferFull = errors.New("training: buffer full")
	ErrClosed     = errors.New("training: collector closed")
)

type Collector struct {
	store *store.Store
	vault *vault.Vault
	queue chan Interaction
	done  chan struct{}

	mu      sync.RWMutex
	closed  bool
	running atomic.Bool
	dropped atomic.Int64
}

// NewCollector creates a collector persisting into s. When v is non-nil the
// payloads are sealed before they are written.
func NewCollector(s *store.Store, v *vault.Vault, buffer int) *Collector {
	if buffer <= 0 {
		buffer = 256
	}
	return &Collector{
		store: s,
		vault: v,
		queue: make(chan Interaction, buffer),
		done:  make(chan struct{}),
	}
}

func (c *Collector) Record(ctx context.Context, in Interaction) (string, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return "", ErrClosed
	}

	select {
	case c.queue <- in:
		return in.ID, nil
	default:
		c.dropped.Add(1)
		return "", ErrBufferFull
	}
}

// Dropped reports how many interactions were discarded because the queue was full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Start persists queued interactions in the background until Close is
// called. Calling it more than once has no effect.
func (c *Collector) Start() {
	if c.running.Swap(true) {
		return
	}
	go c.run()
}

func (c *Collector) run() {
	defer close(c.done)

	for in := range c.queue {
		if err := c.persist(in); err != nil {
			slog.Warn("training record failed", "id", in.ID, "agent", in.AgentID, "error", err)
		}
	}
}

// Close stops accepting interactions and waits for the queue to drain.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	if c.running.Load() {
		<-c.done
	}
}

func (c *Collector) persist(in Interaction) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	sealed := false
	if c.vault != nil {
		payload, err = c.vault.Seal(payload)
		if err != nil {
			return fmt.Errorf("seal interaction: %w", err)
		}
		sealed = true
	}

	return c.store.SaveTrainingRecord(&store.TrainingRecord{
		ID:      in.ID,
		AgentID: in.AgentID,
		UserID:  in.UserID,
		Kind:    string(in.Kind),
		Payload: payload,
		Sealed:  sealed,
	})
}
