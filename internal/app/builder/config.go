package builder

import (
	"fmt"

	"github.com/heartmarshall/jawiki-kana-dict/internal/config"
	"github.com/heartmarshall/jawiki-kana-dict/internal/skkdict"
)

// Check sources for the check phase when no dictionary was built in the same run.
const (
	CheckSourceOutput = "output"
	CheckSourceStore  = "store"
)

// Config holds build pipeline settings.
type Config struct {
	InputPath             string   `yaml:"input_path"              env:"BUILDER_INPUT_PATH"`
	OutputPath            string   `yaml:"output_path"             env:"BUILDER_OUTPUT_PATH"             env-default:"SKK-JISYO.jawiki"`
	OutputEncoding        string   `yaml:"output_encoding"         env:"BUILDER_OUTPUT_ENCODING"         env-default:"utf-8"`
	MergePaths            []string `yaml:"merge_paths"             env:"BUILDER_MERGE_PATHS"             env-separator:","`
	MergeEncoding         string   `yaml:"merge_encoding"          env:"BUILDER_MERGE_ENCODING"          env-default:"euc-jp"`
	Workers               int      `yaml:"workers"                 env:"BUILDER_WORKERS"                 env-default:"4"`
	BatchSize             int      `yaml:"batch_size"              env:"BUILDER_BATCH_SIZE"              env-default:"500"`
	MaxFixpointIterations int      `yaml:"max_fixpoint_iterations" env:"BUILDER_MAX_FIXPOINT_ITERATIONS" env-default:"100"`
	ExtraTitleBlacklist   []string `yaml:"extra_title_blacklist"   env:"BUILDER_EXTRA_TITLE_BLACKLIST"   env-separator:","`
	ExpectationsPath      string   `yaml:"expectations_path"       env:"BUILDER_EXPECTATIONS_PATH"`
	CheckSource           string   `yaml:"check_source"            env:"BUILDER_CHECK_SOURCE"            env-default:"output"`
	DryRun                bool     `yaml:"dry_run"                 env:"BUILDER_DRY_RUN"`
}

// LoadConfig reads builder configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags). An empty path reads
// the environment only; a non-empty path must exist.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if err := config.ReadFile(path, path == "", &cfg); err != nil {
		return nil, fmt.Errorf("builder config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("builder config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks value ranges and encoding names.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.MaxFixpointIterations <= 0 {
		return fmt.Errorf("max_fixpoint_iterations must be > 0 (got %d)", c.MaxFixpointIterations)
	}
	if _, err := skkdict.LookupEncoding(c.OutputEncoding); err != nil {
		return fmt.Errorf("output_encoding: %w", err)
	}
	if _, err := skkdict.LookupEncoding(c.MergeEncoding); err != nil {
		return fmt.Errorf("merge_encoding: %w", err)
	}
	switch c.CheckSource {
	case CheckSourceOutput, CheckSourceStore:
	default:
		return fmt.Errorf("check_source must be %q or %q (got %q)", CheckSourceOutput, CheckSourceStore, c.CheckSource)
	}
	return nil
}
