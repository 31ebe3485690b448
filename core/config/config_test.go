package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/enmark/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
convert:
  front_matter: true
  timezone: local
output:
  root: exported
  on_existing: overwrite
`)
	cfg := Default()
	if err := Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if !cfg.Convert.FrontMatter || cfg.Convert.Zone() != core.TimezoneLocal {
		t.Errorf("convert section = %+v", cfg.Convert)
	}
	if cfg.Output.Root != "exported" || cfg.Output.OnExisting != "overwrite" {
		t.Errorf("output section = %+v", cfg.Output)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Output.MaxNameLength != 128 || cfg.Output.NotePath == "" {
		t.Errorf("defaults lost: %+v", cfg.Output)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("ENMARK_TEST_ROOT", "/tmp/enmark-out")
	path := writeConfig(t, "output:\n  root: ${ENMARK_TEST_ROOT}\n")
	cfg := Default()
	if err := Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Root != "/tmp/enmark-out" {
		t.Errorf("root = %q", cfg.Output.Root)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "log_level: loud\n"},
		{"bad timezone", "convert:\n  timezone: mars\n"},
		{"bad policy", "output:\n  on_existing: explode\n"},
		{"bad root condition", "output:\n  root_condition: burn\n"},
		{"name length out of range", "output:\n  max_name_length: 9000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Load(writeConfig(t, tt.content), Default()); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), Default()); err == nil {
		t.Error("expected an error for a missing file")
	}
}
