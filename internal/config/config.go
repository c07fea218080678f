package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// DefaultPageURL is the lookup site queried when a request does not name
// its own.
const DefaultPageURL = "https://safer.fmcsa.dot.gov/CompanySnapshot.aspx"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string

	// Database configuration
	DBPath string

	// Lookup configuration
	PageURL              string
	LookupTimeout        time.Duration
	SettleDelay          time.Duration
	PaceInterval         time.Duration
	Headless             bool
	UserAgent            string
	MaxConcurrentBatches int

	// Logging
	LogLevel string
}

// Load loads configuration from defaults, an optional config file and
// CARRIER_LOOKUP_* environment variables.
func Load() (*Config, error) {
	return LoadWithViper(viper.New())
}

// LoadWithFile loads configuration from a specific config file.
func LoadWithFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadWithViper(v)
}

// LoadWithViper loads configuration using the given Viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	setupEnvBinding(v)

	if err := loadConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config, err := unmarshalConfig(v)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.ServerHost + ":" + c.ServerPort
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")

	v.SetDefault("database.path", "./carrier-lookup.db")

	v.SetDefault("lookup.page_url", DefaultPageURL)
	v.SetDefault("lookup.timeout", "20s")
	v.SetDefault("lookup.settle_delay", "500ms")
	v.SetDefault("lookup.pace_interval", "0s")
	v.SetDefault("lookup.headless", true)
	v.SetDefault("lookup.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("lookup.max_concurrent_batches", 1)

	v.SetDefault("logging.level", "info")
}

func setupEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix("CARRIER_LOOKUP")
	v.AutomaticEnv()

	envBindings := map[string]string{
		"server.host":                   "SERVER_HOST",
		"server.port":                   "SERVER_PORT",
		"database.path":                 "DATABASE_PATH",
		"lookup.page_url":               "PAGE_URL",
		"lookup.timeout":                "TIMEOUT",
		"lookup.settle_delay":           "SETTLE_DELAY",
		"lookup.pace_interval":          "PACE_INTERVAL",
		"lookup.headless":               "HEADLESS",
		"lookup.user_agent":             "USER_AGENT",
		"lookup.max_concurrent_batches": "MAX_CONCURRENT_BATCHES",
		"logging.level":                 "LOG_LEVEL",
	}

	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, "CARRIER_LOOKUP_"+envSuffix)
	}
}

func loadConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.carrier-lookup")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

func unmarshalConfig(v *viper.Viper) (*Config, error) {
	config := &Config{
		ServerHost:           v.GetString("server.host"),
		ServerPort:           v.GetString("server.port"),
		DBPath:               v.GetString("database.path"),
		PageURL:              v.GetString("lookup.page_url"),
		Headless:             v.GetBool("lookup.headless"),
		UserAgent:            v.GetString("lookup.user_agent"),
		MaxConcurrentBatches: v.GetInt("lookup.max_concurrent_batches"),
		LogLevel:             v.GetString("logging.level"),
	}

	var err error
	if config.LookupTimeout, err = time.ParseDuration(v.GetString("lookup.timeout")); err != nil {
		return nil, fmt.Errorf("invalid lookup timeout: %w", err)
	}
	if config.SettleDelay, err = time.ParseDuration(v.GetString("lookup.settle_delay")); err != nil {
		return nil, fmt.Errorf("invalid settle delay: %w", err)
	}
	if config.PaceInterval, err = time.ParseDuration(v.GetString("lookup.pace_interval")); err != nil {
		return nil, fmt.Errorf("invalid pace interval: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid server port: %s", c.ServerPort)
	}

	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.PageURL == "" {
		return fmt.Errorf("lookup page URL cannot be empty")
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must be non-negative")
	}
	if c.PaceInterval < 0 {
		return fmt.Errorf("pace interval must be non-negative")
	}
	if c.MaxConcurrentBatches < 1 {
		return fmt.Errorf("max concurrent batches must be at least 1")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
}
