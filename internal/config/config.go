package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Session   SessionConfig              `yaml:"session"`
	LLM       LLMConfig                  `yaml:"llm"`
	Agents    map[string]AgentDefinition `yaml:"agents"`
	Router    RouterConfig               `yaml:"router"`
	Workflow  WorkflowConfig             `yaml:"workflow"`
	Training  TrainingConfig             `yaml:"training"`
	Telemetry TelemetryConfig            `yaml:"telemetry"`
	NATS      NATSConfig                 `yaml:"nats"`
	Store     StoreConfig                `yaml:"store"`
	Web       WebConfig                  `yaml:"web"`
}

type SessionConfig struct {
	DefaultUser string `yaml:"default_user" env:"SOLOSUCCESS_DEFAULT_USER"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider" env:"SOLOSUCCESS_LLM_PROVIDER"`
	APIKey      string        `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model       string        `yaml:"model" env:"SOLOSUCCESS_LLM_MODEL"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" env:"SOLOSUCCESS_LLM_TIMEOUT"`
	Retries     int           `yaml:"retries"`
}

// AgentDefinition overrides the built-in persona settings for one agent id.
type AgentDefinition struct {
	Name        string  `yaml:"name"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type RouterConfig struct {
	DefaultAgent string `yaml:"default_agent" env:"SOLOSUCCESS_DEFAULT_AGENT"`
}

type WorkflowConfig struct {
	// StepTimeout bounds a single workflow step. Zero disables the limit.
	StepTimeout time.Duration `yaml:"step_timeout" env:"SOLOSUCCESS_STEP_TIMEOUT"`
	// AutoExecute is a cron expression; pending workflows are executed when it
	// is due. Empty disables automatic execution.
	AutoExecute  string        `yaml:"auto_execute" env:"SOLOSUCCESS_AUTO_EXECUTE"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type TrainingConfig struct {
	Enabled    bool   `yaml:"enabled" env:"SOLOSUCCESS_TRAINING_ENABLED"`
	Buffer     int    `yaml:"buffer"`
	Passphrase string `yaml:"passphrase" env:"SOLOSUCCESS_VAULT_PASSPHRASE"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"SOLOSUCCESS_OTEL_ENDPOINT"`
	ServiceName  string `yaml:"service_name"`
}

type NATSConfig struct {
	Port    int    `yaml:"port" env:"SOLOSUCCESS_NATS_PORT"`
	DataDir string `yaml:"data_dir"`
}

type StoreConfig struct {
	Path string `yaml:"path" env:"SOLOSUCCESS_STORE_PATH"`
}

type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" env:"SOLOSUCCESS_WEB_PORT"`
}

func defaults() Config {
	return Config{
		Session: SessionConfig{
			DefaultUser: "local",
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
			MaxTokens:   1000,
			Timeout:     60 * time.Second,
			Retries:     2,
		},
		Router: RouterConfig{
			DefaultAgent: "roxy",
		},
		Workflow: WorkflowConfig{
			PollInterval: time.Minute,
		},
		Training: TrainingConfig{
			Enabled: true,
			Buffer:  256,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "solosuccess",
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Store: StoreConfig{
			Path: "data/solosuccess.db",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Path returns the config file location, honouring SOLOSUCCESS_CONFIG.
func Path() string {
	if p := os.Getenv("SOLOSUCCESS_CONFIG"); p != "" {
		return p
	}
	return "config/solosuccess.yaml"
}

func Load() (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(Path())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variables win over the file; unset variables leave the
	// file or default value in place.
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}
