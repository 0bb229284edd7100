// Package config loads flowbind settings from a YAML file, an optional .env file
// and FLOWBIND_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/flowbind/internal/errors"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "FLOWBIND_"

// Config is the complete runtime configuration
type Config struct {
	Log        LogConfig        `json:"log" yaml:"log"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Thresholds model.Thresholds `json:"thresholds" yaml:"thresholds"`
}

// LogConfig selects log verbosity and encoding
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	CacheSize       int           `json:"cache_size" yaml:"cache_size"`
	MaxBodyBytes    int64         `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			CacheSize:       128,
			MaxBodyBytes:    10 << 20,
		},
		Thresholds: model.DefaultThresholds(),
	}
}

// DefaultPath returns ~/.flowbind/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".flowbind", "config.yaml")
	}
	return filepath.Join(home, ".flowbind", "config.yaml")
}

// Load builds the configuration. An empty path reads DefaultPath if it exists;
// an explicit path must exist. envFile, when non-empty, is loaded with godotenv
// before environment overrides are applied; a missing .env is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return nil, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to load env file %s", envFile), err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read config file: %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(errors.ErrCodeConfigUnmarshal, fmt.Sprintf("failed to parse config file: %s", path), err).
			WithSuggestion("Check the YAML syntax of the config file")
	}
	return nil
}

// ApplyEnv overlays FLOWBIND_* variables obtained through lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	float := func(name string, dst *float64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("%s%s must be a number, got %q", EnvPrefix, name, v))
		}
		*dst = f
		return nil
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("SERVER_ADDR", &c.Server.Addr)

	if v, ok := lookup(EnvPrefix + "CACHE_SIZE"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("%sCACHE_SIZE must be an integer, got %q", EnvPrefix, v))
		}
		c.Server.CacheSize = n
	}
	if v, ok := lookup(EnvPrefix + "SHUTDOWN_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("%sSHUTDOWN_TIMEOUT must be a duration, got %q", EnvPrefix, v))
		}
		c.Server.ShutdownTimeout = d
	}

	for name, dst := range map[string]*float64{
		"EXACT_MATCH":    &c.Thresholds.ExactMatch,
		"SEMANTIC_MATCH": &c.Thresholds.SemanticMatch,
		"MIN_CONFIDENCE": &c.Thresholds.MinConfidence,
		"DATA_FLOW_MIN":  &c.Thresholds.DataFlowMin,
	} {
		if err := float(name, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks thresholds, log settings and server limits
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return errors.NewConfigInvalidError(err.Error())
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.NewConfigInvalidError("server address cannot be empty")
	}
	if c.Server.CacheSize <= 0 {
		return errors.NewConfigInvalidError("server cache size must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.NewConfigInvalidError("server shutdown timeout must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.NewConfigInvalidError("server max body size must be positive")
	}
	return nil
}

// Save writes the configuration as YAML
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create config directory", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write config file: %s", path), err)
	}
	return nil
}
