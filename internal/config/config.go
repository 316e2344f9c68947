package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level reconcile.yaml configuration.
type Config struct {
	Operator   string           `yaml:"operator"`
	Ledgers    LedgersConfig    `yaml:"ledgers"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// LedgersConfig names the parser formats for the two ledger exports.
type LedgersConfig struct {
	SystemFormat   string `yaml:"system_format"`
	ExternalFormat string `yaml:"external_format"`
}

// ThresholdsConfig carries the engine score floors.
type ThresholdsConfig struct {
	AcceptFloor    float64 `yaml:"accept_floor"`
	SuspicionFloor float64 `yaml:"suspicion_floor"`
}

// Load reads a reconcile.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the standard score floors and built-in
// ledger formats.
func Default(operator string) *Config {
	return &Config{
		Operator: operator,
		Ledgers: LedgersConfig{
			SystemFormat:   "system",
			ExternalFormat: "settlement",
		},
		Thresholds: ThresholdsConfig{
			AcceptFloor:    0.85,
			SuspicionFloor: 0.5,
		},
	}
}
