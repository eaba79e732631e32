package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	server "telemetry/internal/server"
	storage "telemetry/internal/storage/config"
)

// Config holds the application configuration
type Config struct {
	Server  server.Config  `yaml:"server"`
	Storage storage.Config `yaml:"storage"`
	Logging LoggingConfig  `yaml:"logging"`
}

// LoadConfig loads configuration from files and environment variables.
// Order: defaults -> config.yml -> config.local.yml -> ApplyEnvOverrides -> Validate
func LoadConfig() (*Config, error) {
	// Start with default values so YAML can override them, including
	// bool fields.
	cfg := &Config{
		Server:  server.DefaultConfig(),
		Storage: storage.DefaultConfig(),
		Logging: DefaultLoggingConfig(),
	}

	// config.yml overrides defaults, config.local.yml overrides both.
	loadFile("config/config.yml", cfg)
	loadFile("config/config.local.yml", cfg)

	cfg.Server.ApplyDefaults()
	cfg.Storage.ApplyDefaults()
	cfg.Logging.ApplyDefaults()

	cfg.Server.ApplyEnvOverrides()
	cfg.Storage.ApplyEnvOverrides()

	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("server configuration: %w", err)
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("storage configuration: %w", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("logging configuration: %w", err)
	}

	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		slog.Warn("error reading config file", "file", filename, "error", err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("error parsing config file", "file", filename, "error", err)
	}
}
