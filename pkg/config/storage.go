package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveToFile writes the configuration as YAML, creating parent directories.
func SaveToFile(configuration *Config, path string) error {
	return saveYAML(configuration, path)
}

// LoadFromFile reads a YAML configuration. Fields missing from the file
// keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	configuration := Default()
	if err := yaml.Unmarshal(data, configuration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return configuration, nil
}

// SaveSnapshot writes a register snapshot as YAML.
func SaveSnapshot(snapshot *RadioSnapshot, path string) error {
	return saveYAML(snapshot, path)
}

// LoadSnapshot reads a register snapshot.
func LoadSnapshot(path string) (*RadioSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var snapshot RadioSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

func saveYAML(v any, path string) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// DefaultPath returns the configuration file used when none is given.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "trxcore", "config.yaml")
	}
	return filepath.Join("etc", "trxcore", "config.yaml")
}
