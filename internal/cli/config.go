package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete demo pipeline configuration.
// Maps config file fields through YAML tags.
type Config struct {
	Workers struct {
		Producers      int `yaml:"producers"`
		HeartbeatMs    int `yaml:"heartbeat_ms"`
		ConsumeDelayMs int `yaml:"consume_delay_ms"`
	} `yaml:"workers"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

// defaultConfig returns the configuration used when no file is present.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Workers.Producers = 4
	cfg.Workers.HeartbeatMs = 100
	cfg.Logging.Level = "INFO"
	cfg.Metrics.Port = 9090
	return cfg
}

// loadConfig reads path, falling back to defaults when the file does not
// exist.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Workers.Producers < 1 {
		return fmt.Errorf("workers.producers must be at least 1, got %d", c.Workers.Producers)
	}
	if c.Workers.HeartbeatMs < 0 {
		return fmt.Errorf("workers.heartbeat_ms must not be negative, got %d", c.Workers.HeartbeatMs)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port %d out of range", c.Metrics.Port)
	}
	return nil
}
