package main

import (
	"fmt"

	"github.com/jihwankim/precice-case-generate/pkg/config"
)

// loadConfig loads the tool's own configuration from --config, falling back
// to built-in defaults when the flag is unset or the file does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", cfgFile, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
