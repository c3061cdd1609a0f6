package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, hash, err := LoadConfigWithHash(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Stage != StageProduction {
		t.Errorf("expected production default, got %s", cfg.Stage)
	}
	if len(cfg.TrustedDomains) != 0 {
		t.Errorf("expected no trusted domains by default, got %v", cfg.TrustedDomains)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("expected sha256 hash, got %s", hash)
	}
}

func TestLoadConfigOverridesOnlySpecifiedFields(t *testing.T) {
	path := writeConfig(t, `
stage: dev
trusted_domains:
  - https://app.example.com
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Stage != StageDev {
		t.Errorf("expected dev, got %s", cfg.Stage)
	}
	if len(cfg.TrustedDomains) != 1 || cfg.TrustedDomains[0] != "https://app.example.com" {
		t.Errorf("unexpected domains %v", cfg.TrustedDomains)
	}
	if cfg.CredentialPrefix != DefaultCredentialPrefix {
		t.Errorf("expected default prefix, got %q", cfg.CredentialPrefix)
	}
}

func TestLoadConfigRejectsUnknownStage(t *testing.T) {
	path := writeConfig(t, "stage: qa\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestLoadConfigNormalizesStageCase(t *testing.T) {
	path := writeConfig(t, "stage: Staging\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Stage != StageStaging {
		t.Errorf("expected staging, got %s", cfg.Stage)
	}
}

func TestLoadConfigRejectsEmptyDomain(t *testing.T) {
	path := writeConfig(t, "trusted_domains: [\"\"]\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for empty trusted domain")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "stage: [unterminated\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestHashChangesWithContent(t *testing.T) {
	p1 := writeConfig(t, "stage: dev\n")
	p2 := writeConfig(t, "stage: staging\n")
	_, h1, err := LoadConfigWithHash(p1)
	if err != nil {
		t.Fatal(err)
	}
	_, h2, err := LoadConfigWithHash(p2)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("expected different hashes for different content")
	}
}

func TestWatcherReportsChange(t *testing.T) {
	path := writeConfig(t, "stage: dev\n")
	_, hash, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 1)
	w, err := NewWatcher(path, hash, nil, func(h string) {
		select {
		case changed <- h:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("stage: production\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case h := <-changed:
		if h == hash {
			t.Error("expected new hash after change")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestNewWatcherMissingFile(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), "", nil, nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateDir = "/var/lib/hostgate"

	if got := cfg.AuditLogPath(); got != filepath.Join("/var/lib/hostgate", "audit.jsonl") {
		t.Errorf("unexpected default audit path %s", got)
	}
	cfg.AuditLog = "/tmp/custom.jsonl"
	if got := cfg.AuditLogPath(); got != "/tmp/custom.jsonl" {
		t.Errorf("expected configured audit path, got %s", got)
	}
	if got := cfg.WindowStatePath(); got != filepath.Join("/var/lib/hostgate", "window-state.json") {
		t.Errorf("unexpected window state path %s", got)
	}
	if got := cfg.ShellSecretPath(); got != filepath.Join("/var/lib/hostgate", "shell.secret") {
		t.Errorf("unexpected shell secret path %s", got)
	}
}

func TestResolvedAppPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ResolvedAppPath(); got == "" || !filepath.IsAbs(got) {
		t.Errorf("expected executable directory, got %q", got)
	}
	cfg.AppPath = "/opt/phoenix"
	if got := cfg.ResolvedAppPath(); got != "/opt/phoenix" {
		t.Errorf("expected configured app path, got %q", got)
	}
}
