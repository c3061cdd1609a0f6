package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stage is the deployment stage. Only dev widens origin trust.
type Stage string

const (
	StageDev        Stage = "dev"
	StageStaging    Stage = "staging"
	StageProduction Stage = "production"
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageDev, StageStaging, StageProduction:
		return true
	}
	return false
}

// DefaultCredentialPrefix namespaces every secure-store entry the host writes.
const DefaultCredentialPrefix = "phcode_electron_"

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	Identifier       string   `yaml:"identifier"`
	ProductName      string   `yaml:"product_name"`
	Version          string   `yaml:"version"`
	Stage            Stage    `yaml:"stage"`
	TrustedDomains   []string `yaml:"trusted_domains"`
	LoadURL          string   `yaml:"load_url"`
	CredentialPrefix string   `yaml:"credential_prefix"`
	Listen           string   `yaml:"listen"`
	AuditLog         string   `yaml:"audit_log"`
	StateDir         string   `yaml:"state_dir"`
	ShellSecret      string   `yaml:"shell_secret"`
	AppPath          string   `yaml:"app_path"`
}

// DefaultConfig returns the built-in configuration: production stage and no
// trusted domains, so nothing is trusted until configured.
func DefaultConfig() *Config {
	return &Config{
		Identifier:       "io.phcode",
		ProductName:      "Phoenix Code",
		Version:          "0.0.0",
		Stage:            StageProduction,
		TrustedDomains:   []string{},
		LoadURL:          "http://localhost:8000/src/",
		CredentialPrefix: DefaultCredentialPrefix,
		Listen:           "127.0.0.1:8711",
		StateDir:         DefaultStateDir(),
	}
}

// DefaultStateDir returns ~/.hostgate, or a temp dir when HOME is unknown.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "hostgate")
	}
	return filepath.Join(home, ".hostgate")
}

// DefaultPath returns the config file used when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultStateDir(), "config.yaml")
}

// LoadConfig loads configuration from a YAML file.
// Empty path falls back to ~/.hostgate/config.yaml.
// Missing file returns defaults. Invalid YAML or an unknown stage returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads configuration and returns the SHA-256 of the raw
// bytes on disk. When no file exists the hash is that of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), hashBytes(nil), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, hashBytes(data), nil
}

// Validate rejects configuration the host cannot run with.
func (c *Config) Validate() error {
	c.Stage = Stage(strings.ToLower(strings.TrimSpace(string(c.Stage))))
	if !c.Stage.Valid() {
		return fmt.Errorf("invalid stage %q: must be dev, staging or production", c.Stage)
	}
	for i, d := range c.TrustedDomains {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("trusted_domains[%d] is empty", i)
		}
	}
	if c.CredentialPrefix == "" {
		c.CredentialPrefix = DefaultCredentialPrefix
	}
	return nil
}

// ResolvedAppPath is the configured app_path, or the directory holding the
// running executable.
func (c *Config) ResolvedAppPath() string {
	if c.AppPath != "" {
		return c.AppPath
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// WindowStatePath is where the primary window bounds are persisted.
func (c *Config) WindowStatePath() string {
	return filepath.Join(c.StateDir, "window-state.json")
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// AuditLogPath is the configured audit log, or audit.jsonl in the state dir.
func (c *Config) AuditLogPath() string {
	if c.AuditLog != "" {
		return c.AuditLog
	}
	return filepath.Join(c.StateDir, "audit.jsonl")
}

// ShellSecretPath is where a generated shell secret is written for the
// desktop shell to pick up.
func (c *Config) ShellSecretPath() string {
	return filepath.Join(c.StateDir, "shell.secret")
}
