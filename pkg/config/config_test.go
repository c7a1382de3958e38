package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAMLAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	contents := "flavor: os\nadmin:\n  addr: \":9090\"\naudit:\n  driver: sqlite\n  dsn: /tmp/relay-audit.db\n"
	if err := writeFile(t, path, contents); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Flavor != "os" {
		t.Fatalf("expected flavor os, got %q", cfg.Flavor)
	}
	if cfg.Admin.Addr != ":9090" {
		t.Fatalf("expected admin addr :9090, got %q", cfg.Admin.Addr)
	}
	if cfg.Tracing.Exporter != "stdout" {
		t.Fatalf("expected default tracing exporter stdout, got %q", cfg.Tracing.Exporter)
	}
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.toml")
	if err := writeFile(t, path, "flavor = \"os\"\n"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestValidateRejectsUnknownFlavor(t *testing.T) {
	cfg := Default()
	cfg.Flavor = "goroutine"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown flavor")
	}
}

func TestValidateRequiresDSNWhenDriverSet(t *testing.T) {
	cfg := Default()
	cfg.Flavor = "thread"
	cfg.Audit.Driver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing dsn")
	}
}

func writeFile(t *testing.T, path, contents string) error {
	t.Helper()
	return os.WriteFile(path, []byte(contents), 0644)
}
