package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
)

// Config describes one evaluation run
type Config struct {
	DataDir     string   `yaml:"data_dir"`
	Suffix      string   `yaml:"suffix"`
	Delimiter   string   `yaml:"delimiter"`
	MinRT       float64  `yaml:"min_rt"`
	SDCutoff    float64  `yaml:"sd_cutoff"`
	Models      []string `yaml:"models"`
	ChunkLength int      `yaml:"chunk_length"`
	Workers     int      `yaml:"workers"`
	OutputDir   string   `yaml:"output_dir"`
	DBPath      string   `yaml:"db_path"`
	Log         Log      `yaml:"log"`
}

// Log configures logging output
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		DataDir:     "data",
		Suffix:      ".csv",
		Delimiter:   ",",
		MinRT:       100,
		SDCutoff:    3,
		Models:      []string{"tp", "joint", "connected", "disconnected", "conjunctive", "baseline"},
		ChunkLength: 3,
		Workers:     4,
		OutputDir:   "results",
		Log:         Log{Level: "info"},
	}
}

// Load reads a YAML file on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required: %w", internalerr.ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q: %w", c.Delimiter, internalerr.ErrInvalidConfig)
	}
	if c.MinRT < 0 {
		return fmt.Errorf("min_rt must be >= 0: %w", internalerr.ErrInvalidConfig)
	}
	if c.SDCutoff <= 0 {
		return fmt.Errorf("sd_cutoff must be > 0: %w", internalerr.ErrInvalidConfig)
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required: %w", internalerr.ErrInvalidConfig)
	}
	if c.ChunkLength < 2 {
		return fmt.Errorf("chunk_length must be >= 2: %w", internalerr.ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
