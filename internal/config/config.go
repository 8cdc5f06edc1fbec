package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	// Project settings
	ProjectDir string `json:"project_dir"`
	HistoryDir string `json:"history_dir"`

	// Engine settings
	Engine EngineConfig `json:"engine"`

	// Runner settings
	Runner RunnerConfig `json:"runner"`

	// Interpreter bridge settings
	Bridge BridgeConfig `json:"bridge"`
}

type EngineConfig struct {
	// Command is the external solver binary; "sim" selects the built-in
	// simulated engine.
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type RunnerConfig struct {
	PollInterval time.Duration `json:"poll_interval"`
	// Display controls whether interim engine events are forwarded by
	// default; the fit command's --no-events flag overrides it.
	Display bool `json:"display"`
}

type BridgeConfig struct {
	// Command locates the MATLAB executable for custom model files that
	// declare the matlab language.
	Command        string        `json:"command,omitempty"`
	Args           []string      `json:"args,omitempty"`
	StartupTimeout time.Duration `json:"startup_timeout,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		ProjectDir: ".",
		HistoryDir: ".rascal",
		Engine: EngineConfig{
			Command: "sim",
		},
		Runner: RunnerConfig{
			PollInterval: time.Millisecond,
			Display:      true,
		},
		Bridge: BridgeConfig{
			Command:        "matlab",
			StartupTimeout: 60 * time.Second,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configs the runner cannot work with.
func (c *Config) Validate() error {
	if c.Engine.Command == "" {
		return fmt.Errorf("engine.command must not be empty")
	}
	if c.Runner.PollInterval < 0 {
		return fmt.Errorf("runner.poll_interval must be non-negative")
	}
	return nil
}

// HistoryPath joins parts under the history directory.
func (c *Config) HistoryPath(parts ...string) string {
	elems := append([]string{c.ProjectDir, c.HistoryDir}, parts...)
	return filepath.Join(elems...)
}

func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
