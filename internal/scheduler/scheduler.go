// Package scheduler executes pending workflows on the configured
// auto-execute schedule.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/workflow"
)

const defaultPollInterval = 30 * time.Second

// Runner executes one workflow in the session of its owner.
type Runner interface {
	ExecuteWorkflow(ctx context.Context, id string) (*workflow.Workflow, error)
}

type Scheduler struct {
	workflows workflow.Store
	runner    Runner
	now       func() time.Time

	mu           sync.Mutex
	schedule     *Schedule
	next         time.Time
	pollInterval time.Duration
	reloadCh     chan struct{}
}

// New creates a scheduler. An empty AutoExecute leaves it idle until a
// schedule is configured.
func New(workflows workflow.Store, runner Runner, cfg config.WorkflowConfig) (*Scheduler, error) {
	s := &Scheduler{
		workflows: workflows,
		runner:    runner,
		now:       time.Now,
		reloadCh:  make(chan struct{}, 1),
	}
	if err := s.apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateConfig swaps the schedule and poll interval, then signals the run
// loop to reset its ticker. An invalid expression keeps the old schedule.
func (s *Scheduler) UpdateConfig(cfg config.WorkflowConfig) error {
	if err := s.apply(cfg); err != nil {
		return err
	}
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) apply(cfg config.WorkflowConfig) error {
	var sched *Schedule
	if cfg.AutoExecute != "" {
		parsed, err := ParseSchedule(cfg.AutoExecute)
		if err != nil {
			return err
		}
		sched = parsed
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = sched
	s.pollInterval = interval
	s.next = time.Time{}
	if sched != nil {
		next, err := sched.Next(s.now())
		if err != nil {
			return err
		}
		s.next = next
	}
	return nil
}

func (s *Scheduler) PollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollInterval
}

// NextRun reports the next due time; zero when no schedule is set.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.PollInterval())
	defer ticker.Stop()

	slog.Info("scheduler started", "poll_interval", s.PollInterval(), "next_run", s.NextRun())

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-s.reloadCh:
			ticker.Reset(s.PollInterval())
			slog.Info("scheduler config reloaded", "poll_interval", s.PollInterval(), "next_run", s.NextRun())
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	if !s.due() {
		return
	}
	if _, err := s.RunPending(ctx); err != nil {
		slog.Error("auto-execute failed", "error", err)
	}
}

// due reports whether the schedule fired and advances it past now.
func (s *Scheduler) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.schedule == nil || now.Before(s.next) {
		return false
	}
	next, err := s.schedule.Next(now)
	if err != nil {
		slog.Error("failed to compute next run", "error", err)
		s.schedule = nil
		return false
	}
	s.next = next
	return true
}

// RunPending resumes workflows left in progress by an interrupted run, then
// executes every pending workflow in creation order. It returns how many
// reached a terminal state. Failures of single workflows are logged and do
// not stop the others.
func (s *Scheduler) RunPending(ctx context.Context) (int, error) {
	interrupted, err := s.workflows.ListByStatus(workflow.StatusInProgress)
	if err != nil {
		return 0, err
	}
	pending, err := s.workflows.ListByStatus(workflow.StatusPending)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, wf := range append(interrupted, pending...) {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		slog.Info("auto-executing workflow", "id", wf.ID, "user", wf.UserID, "name", wf.Name, "status", wf.Status)
		res, err := s.runner.ExecuteWorkflow(ctx, wf.ID)
		switch {
		case errors.Is(err, workflow.ErrWorkflowRunning), errors.Is(err, workflow.ErrWorkflowTerminal):
			slog.Debug("workflow skipped", "id", wf.ID, "reason", err)
		case err != nil && ctx.Err() != nil:
			slog.Info("workflow interrupted, resuming on next run", "id", wf.ID)
			return done, ctx.Err()
		case err != nil:
			slog.Error("workflow execution failed", "id", wf.ID, "error", err)
		default:
			done++
			slog.Info("workflow finished", "id", wf.ID, "status", res.Status)
		}
	}
	return done, nil
}
