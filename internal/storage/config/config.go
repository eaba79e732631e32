package config

import (
	"fmt"
	"os"
)

// Config holds the document-store connection settings.
type Config struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// DefaultConfig returns default storage configuration.
func DefaultConfig() Config {
	return Config{
		Database:   "embedded-statistics-tracking-dev",
		Collection: "sensor_readings",
	}
}

// ApplyDefaults fills in missing values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.Collection == "" {
		c.Collection = defaults.Collection
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// MONGODB_URL and MONGODB_DB_NAME take precedence over file configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MONGODB_URL"); v != "" {
		c.URI = v
	}
	if v := os.Getenv("MONGODB_DB_NAME"); v != "" {
		c.Database = v
	}
}

// Validate returns an error if the configuration is invalid. A missing
// URI is not a validation error: it is surfaced by the connection
// manager on first use, so the service can still boot and serve health
// checks without a store.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("storage database name cannot be empty")
	}
	if c.Collection == "" {
		return fmt.Errorf("storage collection name cannot be empty")
	}
	return nil
}
