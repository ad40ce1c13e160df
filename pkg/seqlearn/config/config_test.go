package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/model"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "run.yaml")

	content := `data_dir: recordings
delimiter: ";"
models:
  - tp
  - conjunctive
workers: 2
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DataDir != "recordings" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Delimiter != ";" {
		t.Errorf("Delimiter = %q", cfg.Delimiter)
	}
	if len(cfg.Models) != 2 {
		t.Errorf("Expected 2 models, got %v", cfg.Models)
	}
	if cfg.Workers != 2 || cfg.Log.Level != "debug" {
		t.Errorf("Workers/Log not applied: %+v", cfg)
	}
	// untouched fields keep defaults
	if cfg.MinRT != 100 || cfg.SDCutoff != 3 || cfg.ChunkLength != 3 || cfg.Suffix != ".csv" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workers: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no data dir", func(c *Config) { c.DataDir = "" }},
		{"long delimiter", func(c *Config) { c.Delimiter = ";;" }},
		{"negative min rt", func(c *Config) { c.MinRT = -1 }},
		{"zero cutoff", func(c *Config) { c.SDCutoff = 0 }},
		{"no models", func(c *Config) { c.Models = nil }},
		{"short chunk", func(c *Config) { c.ChunkLength = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestComponents(t *testing.T) {
	cfg := Default()
	cfg.Delimiter = ";"
	cfg.Models = []string{"conjunctive", "baseline"}

	comp, err := cfg.Components()
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	if len(comp.Kinds) != 2 || comp.Kinds[0] != model.ConjunctiveChunk || comp.Kinds[1] != model.Baseline {
		t.Errorf("Kinds = %v", comp.Kinds)
	}
	if comp.Dataset.Delimiter != ';' || comp.Dataset.MinRT != 100 {
		t.Errorf("Dataset options = %+v", comp.Dataset)
	}
	if comp.ModelOptions.ChunkLength != 3 {
		t.Errorf("ChunkLength = %d", comp.ModelOptions.ChunkLength)
	}
}

func TestComponentsRejectsUnknownModel(t *testing.T) {
	cfg := Default()
	cfg.Models = []string{"tp", "hmm"}
	if _, err := cfg.Components(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = Default()
	cfg.ChunkLength = 9
	if _, err := cfg.Components(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for long chunks, got %v", err)
	}
}
