// Package config provides configuration loading for the tracuu tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nvkhoa/tracuu/internal/logging"
)

// Config is the application configuration.
type Config struct {
	// AppDir is the install root that updates overwrite.
	AppDir string `yaml:"app_dir"`

	// VersionFile is the version metadata file inside AppDir.
	VersionFile string `yaml:"version_file"`

	// UpdateDelaySeconds is how long the background update check waits
	// after startup before running.
	UpdateDelaySeconds int `yaml:"update_delay_seconds"`

	Logging logging.Config `yaml:"logging"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		AppDir:             "app",
		VersionFile:        filepath.Join("app", "version.json"),
		UpdateDelaySeconds: 3,
		Logging:            logging.DefaultConfig(),
	}
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if c.AppDir == "" {
		return fmt.Errorf("app_dir must not be empty")
	}
	if c.VersionFile == "" {
		return fmt.Errorf("version_file must not be empty")
	}
	if c.UpdateDelaySeconds < 0 {
		return fmt.Errorf("update_delay_seconds must not be negative")
	}
	return nil
}

// Load reads path into a Config, applying defaults first. Environment
// variables in the file are expanded. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
