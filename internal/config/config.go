// Package config loads project configuration from .specfold.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up at the root.
const FileName = ".specfold.yaml"

// Config holds project-level settings. Every field has a default, so a
// project without a config file works out of the box.
type Config struct {
	Project    string `yaml:"project,omitempty"`
	Author     string `yaml:"author,omitempty"`
	SpecsDir   string `yaml:"specs_dir,omitempty"`
	DeltasDir  string `yaml:"deltas_dir,omitempty"`
	AppliedDir string `yaml:"applied_dir,omitempty"`
	TrackerDB  string `yaml:"tracker_db,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		SpecsDir:   "specs",
		DeltasDir:  filepath.Join("specs", "deltas"),
		AppliedDir: filepath.Join("specs", "deltas", "applied"),
		TrackerDB:  filepath.Join(".specfold", "tracker.db"),
	}
}

// Load reads .specfold.yaml from root. A missing file yields the
// defaults; a present but malformed file is an error. Unset fields
// fall back to their defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	defaults := Default()
	if cfg.SpecsDir == "" {
		cfg.SpecsDir = defaults.SpecsDir
	}
	if cfg.DeltasDir == "" {
		cfg.DeltasDir = defaults.DeltasDir
	}
	if cfg.AppliedDir == "" {
		cfg.AppliedDir = defaults.AppliedDir
	}
	if cfg.TrackerDB == "" {
		cfg.TrackerDB = defaults.TrackerDB
	}
	return cfg, nil
}

// Save writes the configuration to root/.specfold.yaml.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
