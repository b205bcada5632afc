package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for pickmeup
type Config struct {
	// Checkpoint state storage
	State StateConfig `yaml:"state" json:"state"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StateConfig controls where checkpoint records are stored
type StateConfig struct {
	// Directory holds one checkpoint file per run name. Empty means the
	// platform data directory is used.
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		State: StateConfig{
			Directory: "",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load builds the effective configuration: defaults, then config file,
// then environment variables.
func Load(configFile string) (*Config, error) {
	// Load .env file if present, ignoring absence
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, err
	}

	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if dir := os.Getenv("PICKMEUP_STATE_DIR"); dir != "" {
		c.State.Directory = dir
	}
	if level := os.Getenv("PICKMEUP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("PICKMEUP_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".pickmeup.yaml",
		".pickmeup.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "pickmeup", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "pickmeup", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("unknown log level: %s", c.Logging.Level))
	}

	if c.State.Directory != "" {
		if info, err := os.Stat(c.State.Directory); err == nil && !info.IsDir() {
			errs = append(errs, fmt.Errorf("state directory %s is not a directory", c.State.Directory))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WriteExample writes a commented example configuration file to path
func WriteExample(path string) error {
	example := `# pickmeup configuration file
#
# Values here can be overridden by PICKMEUP_* environment variables.

state:
  # Directory for checkpoint records. Leave empty to use the platform
  # data directory (e.g. ~/.local/share/pickmeup/checkpoints on Linux).
  directory: ""

logging:
  # One of: debug, info, warn, error, fatal, disabled
  level: "info"
  # Log file path. Empty logs to the console only.
  file: ""
`
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return os.WriteFile(path, []byte(example), 0644)
}
