package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "glint.json"

	// DefaultDevtoolsHost is the default inspector host.
	DefaultDevtoolsHost = "localhost"

	// DefaultDevtoolsPort is the default inspector port.
	DefaultDevtoolsPort = 6360

	// DefaultMaxFlushRounds is the default cycle guard for engines
	// created by the CLI.
	DefaultMaxFlushRounds = 64

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"
)

// Config is the complete glint.json configuration.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"logLevel,omitempty"`

	// MaxFlushRounds bounds flush re-entrancy for engines created by
	// the CLI.
	MaxFlushRounds int `json:"maxFlushRounds,omitempty"`

	// Devtools configures the inspector server.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`

	// Bench configures the benchmark command.
	Bench BenchConfig `json:"bench,omitempty"`

	configPath string
}

// DevtoolsConfig configures the inspector server.
type DevtoolsConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Address returns the inspector listen address.
func (c DevtoolsConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BenchConfig configures the benchmark command.
type BenchConfig struct {
	// Iterations is the number of update cycles per scenario.
	Iterations int `json:"iterations,omitempty"`

	// ChainDepth is the derivation chain length for the chain scenario.
	ChainDepth int `json:"chainDepth,omitempty"`

	// Fanout is the observer count for the fanout scenario.
	Fanout int `json:"fanout,omitempty"`
}

// New returns a configuration with all defaults applied.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads glint.json from dir. A missing file is not an error: the
// defaults are returned.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the configuration from an explicit path. A missing file
// yields the defaults; a malformed one is an error.
func LoadFile(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.applyEnv()

	return cfg, nil
}

// Path returns the path the configuration was loaded from, or "" for
// defaults.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in zero-valued fields.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxFlushRounds == 0 {
		c.MaxFlushRounds = DefaultMaxFlushRounds
	}
	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultDevtoolsHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultDevtoolsPort
	}
	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = 10000
	}
	if c.Bench.ChainDepth == 0 {
		c.Bench.ChainDepth = 32
	}
	if c.Bench.Fanout == 0 {
		c.Bench.Fanout = 100
	}
}

// applyEnv overrides settings from GLINT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("GLINT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GLINT_DEVTOOLS_HOST"); v != "" {
		c.Devtools.Host = v
	}
	if v := os.Getenv("GLINT_DEVTOOLS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Devtools.Port = port
		}
	}
	if v := os.Getenv("GLINT_MAX_FLUSH_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxFlushRounds = n
		}
	}
}

// Validate checks the configuration for impossible values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logLevel %q", c.LogLevel)
	}
	if c.Devtools.Port < 1 || c.Devtools.Port > 65535 {
		return fmt.Errorf("invalid devtools port %d", c.Devtools.Port)
	}
	if c.MaxFlushRounds < 1 {
		return fmt.Errorf("invalid maxFlushRounds %d", c.MaxFlushRounds)
	}
	return nil
}
