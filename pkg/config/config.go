/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/

// Package config loads and validates the YAML configuration coldtreectl
// operates the tree engine against: which storage backend to use for node
// bytes and metadata, where it lives, and the fullness/residency knobs
// the engine recognizes at construction.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend names the ByteStorage implementation a StorageConfig selects.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendDir    Backend = "dir"
	BackendPebble Backend = "pebble"
	BackendLog    Backend = "log"
)

// StorageConfig selects and configures one ByteStorage backend.
type StorageConfig struct {
	Backend Backend `yaml:"backend"`
	Path    string  `yaml:"path,omitempty"`
}

// Logging contains logging configuration.
type Logging struct {
	Level string `yaml:"level"`
}

// Config is the coldtreectl configuration: the two storage roles the
// engine needs (node bytes, metadata + roots) plus the fullness and
// residency knobs it recognizes at construction.
type Config struct {
	NodeStorage     StorageConfig `yaml:"node_storage"`
	MetadataStorage StorageConfig `yaml:"metadata_storage"`
	MaxValues       int           `yaml:"max_values"`
	ResidentCap     int           `yaml:"resident_cap"`
	Logging         Logging       `yaml:"logging"`
}

// DefaultConfig returns a configuration matching the core's own defaults:
// in-memory storage, full? at value count 1001, an unbounded resident cap
// (0 means "never evict automatically").
func DefaultConfig() *Config {
	return &Config{
		NodeStorage:     StorageConfig{Backend: BackendMemory},
		MetadataStorage: StorageConfig{Backend: BackendMemory},
		MaxValues:       1001,
		ResidentCap:     0,
		Logging:         Logging{Level: "info"},
	}
}

// Validate checks that the configuration describes a constructible tree:
// an odd MaxValues (the median split requires this to produce equal
// halves) and a recognized backend for each storage role.
func (c *Config) Validate() error {
	if c.MaxValues%2 == 0 {
		return fmt.Errorf("max_values must be odd, got %d", c.MaxValues)
	}
	if c.MaxValues < 1 {
		return fmt.Errorf("max_values must be positive, got %d", c.MaxValues)
	}
	if err := c.NodeStorage.validate("node_storage"); err != nil {
		return err
	}
	if err := c.MetadataStorage.validate("metadata_storage"); err != nil {
		return err
	}
	if c.ResidentCap < 0 {
		return fmt.Errorf("resident_cap must be ≥ 0, got %d", c.ResidentCap)
	}
	return nil
}

func (s StorageConfig) validate(field string) error {
	switch s.Backend {
	case BackendMemory:
		return nil
	case BackendDir, BackendPebble, BackendLog:
		if s.Path == "" {
			return fmt.Errorf("%s: path is required for backend %q", field, s.Backend)
		}
		return nil
	default:
		return fmt.Errorf("%s: unrecognized backend %q", field, s.Backend)
	}
}

// LoadConfig reads and validates a YAML configuration file at path.
func LoadConfig(path string) (*Config, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		path = abs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// SaveConfig writes config to path as YAML, creating its parent directory
// if necessary.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration path for the
// current platform: ~/.config/coldtree/config.yaml, falling back to a
// relative path if the home directory cannot be resolved.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./coldtree.yaml"
	}
	return filepath.Join(homeDir, ".config", "coldtree", "config.yaml")
}

// ConfigExists reports whether a configuration file exists at path.
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
