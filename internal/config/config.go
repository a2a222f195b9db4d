package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default returns the built-in configuration used when no config file
// exists.
func Default() *SimConfig {
	return &SimConfig{
		Policy:    "critical_path",
		Cores:     2,
		OutputDir: "outputs",
	}
}

// Load reads a JSON config file. A missing file is not an error: the
// defaults are returned so the simulator works out of the box.
func Load(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Cores <= 0 {
		return nil, fmt.Errorf("config %s: cores must be positive, got %d", path, cfg.Cores)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON, creating parent
// directories as needed.
func Save(path string, cfg *SimConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
