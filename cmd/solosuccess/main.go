package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/llm/gemini"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/natsbus"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/orchestrator"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/scheduler"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/telemetry"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/training"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/vault"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/web"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/workflow"
)

var version = "dev"

func main() {
	cmd := "gateway"
	var args []string
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	var err error
	switch cmd {
	case "version":
		fmt.Printf("solosuccess %s\n", version)
	case "gateway":
		err = runGateway()
	case "export-training":
		err = runExport(args)
	case "events":
		err = runEvents(args)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: solosuccess <command>

Commands:
  gateway            Start the agent gateway (default)
  export-training    Write recorded interactions as zstd JSON lines
  events             Print bus events from a running gateway
                     [-nats URL] [-workflow ID | -only workflows|chats|agents]
  version            Print version
`)
}

func runGateway() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting solosuccess gateway", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTracing(context.Background())

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Embedded NATS
	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	nc, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("nats client: %w", err)
	}
	defer nc.Close()
	slog.Info("nats started", "port", bus.Port())

	gen, err := gemini.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("init llm: %w", err)
	}

	// Training data recorder
	var (
		agentOpts []agent.Option
		collector *training.Collector
	)
	if cfg.Training.Enabled {
		var v *vault.Vault
		if cfg.Training.Passphrase != "" {
			if v, err = vault.New(cfg.Training.Passphrase); err != nil {
				return fmt.Errorf("init vault: %w", err)
			}
		}
		collector = training.NewCollector(db, v, cfg.Training.Buffer)
		collector.Start()
		defer collector.Close()
		agentOpts = append(agentOpts, agent.WithRecorder(collector))
		slog.Info("training recorder started", "sealed", v != nil)
	}

	workflows := workflow.NewSQLStore(db)
	mgr := orchestrator.NewManager(cfg, gen, workflows, db, natsbus.NewPublisher(nc), agentOpts...)

	// Scheduler
	sched, err := scheduler.New(workflows, mgr, cfg.Workflow)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	go sched.Start(ctx)

	// Web API
	if cfg.Web.Enabled {
		var stats web.TrainingStats
		if collector != nil {
			stats = collector
		}
		srv := web.NewServer(mgr, nc, stats, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
				cancel()
			}
		}()
	}

	// Wait for shutdown signal; SIGHUP reloads the config
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reload(mgr, sched)
				continue
			}
			slog.Info("shutting down", "signal", sig)
			cancel()
			return nil
		}
	}
}

func reload(mgr *orchestrator.Manager, sched *scheduler.Scheduler) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config reload failed", "error", err)
		return
	}

	diff := mgr.Reload(cfg)
	if diff.WorkflowChanged {
		if err := sched.UpdateConfig(cfg.Workflow); err != nil {
			slog.Error("scheduler reload failed", "error", err)
		}
	}
	if !diff.HasChanges() {
		slog.Info("config reloaded, nothing changed")
	}
}
