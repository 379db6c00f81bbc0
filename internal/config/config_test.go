package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.Router.DefaultAgent != "roxy" {
		t.Errorf("expected default agent roxy, got %s", cfg.Router.DefaultAgent)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected provider gemini, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("expected llm timeout 60s, got %v", cfg.LLM.Timeout)
	}
	if cfg.Workflow.StepTimeout != 0 {
		t.Errorf("expected no step timeout by default, got %v", cfg.Workflow.StepTimeout)
	}
	if cfg.Workflow.AutoExecute != "" {
		t.Errorf("expected auto execute disabled, got %q", cfg.Workflow.AutoExecute)
	}
	if cfg.NATS.Port != 4222 {
		t.Errorf("expected nats port 4222, got %d", cfg.NATS.Port)
	}
	if !cfg.Web.Enabled || cfg.Web.Port != 8080 {
		t.Errorf("expected web enabled on 8080, got %v/%d", cfg.Web.Enabled, cfg.Web.Port)
	}
	if cfg.Store.Path != "data/solosuccess.db" {
		t.Errorf("expected store path data/solosuccess.db, got %s", cfg.Store.Path)
	}
	if cfg.Session.DefaultUser != "local" {
		t.Errorf("expected default user local, got %s", cfg.Session.DefaultUser)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SOLOSUCCESS_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SOLOSUCCESS_DEFAULT_AGENT", "vex")
	t.Setenv("SOLOSUCCESS_WEB_PORT", "9090")
	t.Setenv("SOLOSUCCESS_STEP_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.APIKey != "test-key" {
		t.Errorf("expected api key test-key, got %s", cfg.LLM.APIKey)
	}
	if cfg.Router.DefaultAgent != "vex" {
		t.Errorf("expected default agent vex, got %s", cfg.Router.DefaultAgent)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected web port 9090, got %d", cfg.Web.Port)
	}
	if cfg.Workflow.StepTimeout != 45*time.Second {
		t.Errorf("expected step timeout 45s, got %v", cfg.Workflow.StepTimeout)
	}
	// Untouched values keep their defaults.
	if cfg.NATS.Port != 4222 {
		t.Errorf("expected nats port 4222, got %d", cfg.NATS.Port)
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("SOLOSUCCESS_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("SOLOSUCCESS_WEB_PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
llm:
  model: "gemini-2.5-pro"
  temperature: 0.3
agents:
  roxy:
    name: "Roxy (Chief of Staff)"
    max_tokens: 2000
  vex:
    model: "gemini-2.5-pro"
router:
  default_agent: "lumi"
workflow:
  step_timeout: 2m
  auto_execute: "*/5 * * * *"
web:
  port: 3000
  enabled: false
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SOLOSUCCESS_CONFIG", cfgPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("expected gemini-2.5-pro, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", cfg.LLM.Temperature)
	}
	if len(cfg.Agents) != 2 {
		t.Fatalf("expected 2 agent overrides, got %d", len(cfg.Agents))
	}
	if cfg.Agents["roxy"].MaxTokens != 2000 {
		t.Errorf("expected roxy max tokens 2000, got %d", cfg.Agents["roxy"].MaxTokens)
	}
	if cfg.Router.DefaultAgent != "lumi" {
		t.Errorf("expected default agent lumi, got %s", cfg.Router.DefaultAgent)
	}
	if cfg.Workflow.StepTimeout != 2*time.Minute {
		t.Errorf("expected step timeout 2m, got %v", cfg.Workflow.StepTimeout)
	}
	if cfg.Workflow.AutoExecute != "*/5 * * * *" {
		t.Errorf("unexpected auto execute %q", cfg.Workflow.AutoExecute)
	}
	if cfg.Web.Port != 3000 {
		t.Errorf("expected web port 3000, got %d", cfg.Web.Port)
	}
	if cfg.Web.Enabled {
		t.Error("expected web disabled")
	}
}
