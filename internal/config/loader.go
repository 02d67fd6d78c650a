package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the root config file used when CONFIG_PATH is unset.
const DefaultPath = "./config.yaml"

// ErrFileNotFound is returned by ReadFile for a required file that does not exist.
var ErrFileNotFound = errors.New("config file not found")

// Load reads the root configuration from CONFIG_PATH (or DefaultPath) and the
// environment, then validates it. Priority: ENV > YAML > env-default tags.
// A missing DefaultPath is fine; a missing CONFIG_PATH file is not.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		path, explicit = DefaultPath, false
	}

	var cfg Config
	if err := ReadFile(path, !explicit, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// ReadFile fills dst from the YAML file at path and then from the environment.
// When the file does not exist, an optional read falls back to the environment
// and env-default tags alone; a required one returns ErrFileNotFound.
// The builder config and the expectations file are read the same way.
func ReadFile(path string, optional bool, dst any) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, dst); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return nil
	case errors.Is(err, fs.ErrNotExist) && optional:
		if err := cleanenv.ReadEnv(dst); err != nil {
			return fmt.Errorf("read env: %w", err)
		}
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	default:
		return fmt.Errorf("stat %s: %w", path, err)
	}
}
