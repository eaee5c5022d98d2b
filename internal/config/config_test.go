package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "stackplan.yaml"), false)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Placement != "pinned" {
		t.Fatalf("expected default placement pinned, got %q", cfg.Placement)
	}
	if cfg.Limits.MaxPasses != 64 || cfg.Limits.StallPasses != 4 {
		t.Fatalf("unexpected default limits: %+v", cfg.Limits)
	}
	if cfg.Path != "" {
		t.Fatalf("defaults should not carry a path, got %q", cfg.Path)
	}
}

func TestLoadRequiredMissingFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true); err == nil {
		t.Fatalf("expected error for required missing config")
	}
}

func TestLoadParsesYamlAndResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	configYAML := strings.TrimSpace(`
placement: Anywhere
limits:
  max_passes: 10
logging:
  level: DEBUG
  format: json
  file: logs/run.log
render:
  color: never
  facts: true
journal: journal.log
`)
	path := filepath.Join(dir, "stackplan.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Placement != "anywhere" {
		t.Fatalf("placement = %q", cfg.Placement)
	}
	if cfg.Limits.MaxPasses != 10 || cfg.Limits.StallPasses != 4 {
		t.Fatalf("limits = %+v", cfg.Limits)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Logging.File != filepath.Join(dir, "logs", "run.log") {
		t.Fatalf("logging.file = %q", cfg.Logging.File)
	}
	if cfg.Journal != filepath.Join(dir, "journal.log") {
		t.Fatalf("journal = %q", cfg.Journal)
	}
	if !cfg.Render.Facts || cfg.Render.Color != "never" {
		t.Fatalf("render = %+v", cfg.Render)
	}
	if cfg.Path != path {
		t.Fatalf("path = %q", cfg.Path)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"placement": "placement: sideways",
		"limits":    "limits:\n  max_passes: -1",
		"level":     "logging:\n  level: loud",
		"format":    "logging:\n  format: xml",
		"color":     "render:\n  color: rainbow",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc), ""); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDefaultYAMLParsesToDefaults(t *testing.T) {
	cfg, err := Parse([]byte(DefaultYAML), "")
	if err != nil {
		t.Fatalf("parse default yaml: %v", err)
	}
	want := Default()
	if cfg.Placement != want.Placement || cfg.Limits != want.Limits || cfg.Logging != want.Logging || cfg.Render != want.Render {
		t.Fatalf("default yaml = %+v, want %+v", cfg, want)
	}
}

func TestWriteDefaultKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "stackplan.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	if err := os.WriteFile(path, []byte("placement: anywhere\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(path); err != nil {
		t.Fatalf("second write default: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "placement: anywhere\n" {
		t.Fatalf("existing config overwritten: %q", data)
	}
}
