package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL      string        `json:"server_url"`
	Format         string        `json:"format"`
	Quiet          bool          `json:"quiet"`
	RequestTimeout time.Duration `json:"-"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "http://localhost:8080",
		Format:         "table",
		Quiet:          false,
		RequestTimeout: 10 * time.Minute,
	}
}

// LoadConfig loads configuration from file, environment variables, and CLI flags
func LoadConfig(serverFlag, formatFlag string, quietFlag bool) (*Config, error) {
	config := DefaultConfig()

	// Config file is optional.
	_ = config.loadFromFile()

	config.loadFromEnv()

	// CLI flags win.
	if serverFlag != "" {
		config.ServerURL = serverFlag
	}
	if formatFlag != "" {
		config.Format = formatFlag
	}
	if quietFlag {
		config.Quiet = quietFlag
	}

	return config, config.validate()
}

// loadFromFile loads configuration from ~/.carrier-lookup.json
func (c *Config) loadFromFile() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".carrier-lookup.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if serverURL := os.Getenv("CARRIER_LOOKUP_SERVER"); serverURL != "" {
		c.ServerURL = serverURL
	}
	if format := os.Getenv("CARRIER_LOOKUP_FORMAT"); format != "" {
		c.Format = format
	}
	if os.Getenv("CARRIER_LOOKUP_QUIET") == "true" {
		c.Quiet = true
	}
	if raw := os.Getenv("CARRIER_LOOKUP_REQUEST_TIMEOUT"); raw != "" {
		if timeout, err := time.ParseDuration(raw); err == nil && timeout > 0 {
			c.RequestTimeout = timeout
		}
	}
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	switch c.Format {
	case "table", "json":
	default:
		return fmt.Errorf("invalid format: %s (must be one of: table, json)", c.Format)
	}

	return nil
}
