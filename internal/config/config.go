// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by MergeWithDefaults.
const (
	DefaultPort          = 8080
	DefaultLoadLatency   = 500 * time.Millisecond
	DefaultAdviceTimeout = 60 * time.Second
	DefaultLoadTimeout   = 10 * time.Second
	DefaultSessionTTL    = 30 * time.Minute
)

// Duration is a time.Duration written as a string such as "500ms" in config files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON writes the duration in time.Duration string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalYAML accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v))
	case int:
		*d = Duration(time.Duration(v))
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Config represents the CLI configuration that can be loaded from a JSON or
// YAML file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Data
	DatasetPath string `json:"dataset_path,omitempty" yaml:"dataset_path,omitempty"` // JSON/YAML school list overriding the embedded seed
	// LoadLatency is the simulated load delay. Nil means unset; zero disables it.
	LoadLatency *Duration `json:"load_latency,omitempty" yaml:"load_latency,omitempty"`
	LoadTimeout Duration  `json:"load_timeout,omitempty" yaml:"load_timeout,omitempty"`

	// Advice
	APIKey        string   `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key
	Model         string   `json:"model,omitempty" yaml:"model,omitempty"`     // Overrides the standard-tier model
	AdviceTimeout Duration `json:"advice_timeout,omitempty" yaml:"advice_timeout,omitempty"`

	// Server
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
	// SessionTTL is how long an untouched browser session is kept.
	SessionTTL Duration `json:"session_ttl,omitempty" yaml:"session_ttl,omitempty"`

	// Behavior
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Debug-level logging
}

// LoadConfig loads configuration from a JSON file, or YAML when the
// extension is .yaml or .yml.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.LoadLatency != nil && *c.LoadLatency < 0 {
		return fmt.Errorf("config error: 'load_latency' must be non-negative")
	}
	if c.LoadTimeout < 0 {
		return fmt.Errorf("config error: 'load_timeout' must be non-negative")
	}
	if c.AdviceTimeout < 0 {
		return fmt.Errorf("config error: 'advice_timeout' must be non-negative")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("config error: 'session_ttl' must be non-negative")
	}

	if c.DatasetPath != "" {
		if _, err := os.Stat(c.DatasetPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: dataset file not found: %s", c.DatasetPath)
		}
		switch strings.ToLower(filepath.Ext(c.DatasetPath)) {
		case ".json", ".yaml", ".yml":
		default:
			return fmt.Errorf("config error: dataset file must be .json, .yaml or .yml: %s", c.DatasetPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatasetPath == "" {
		result.DatasetPath = defaults.DatasetPath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}

	// Numeric fields: use default if zero, then the built-in default
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}
	if result.AdviceTimeout == 0 {
		result.AdviceTimeout = defaults.AdviceTimeout
	}
	if result.AdviceTimeout == 0 {
		result.AdviceTimeout = Duration(DefaultAdviceTimeout)
	}
	if result.LoadTimeout == 0 {
		result.LoadTimeout = defaults.LoadTimeout
	}
	if result.LoadTimeout == 0 {
		result.LoadTimeout = Duration(DefaultLoadTimeout)
	}
	if result.SessionTTL == 0 {
		result.SessionTTL = defaults.SessionTTL
	}
	if result.SessionTTL == 0 {
		result.SessionTTL = Duration(DefaultSessionTTL)
	}

	// Pointer fields: explicit zero is kept
	if result.LoadLatency == nil {
		result.LoadLatency = defaults.LoadLatency
	}
	if result.LoadLatency == nil {
		latency := Duration(DefaultLoadLatency)
		result.LoadLatency = &latency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
