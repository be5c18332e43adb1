// Package config loads .kickoff/config.yaml and merges it with defaults
// and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jywlabs/kickoff/internal/generator"
	"github.com/jywlabs/kickoff/internal/template"
)

// Attempt budget bounds accepted by every entry point.
const (
	MinAttempts = 1
	MaxAttempts = 5
)

// EngineEnv overrides the configured engine when set.
const EngineEnv = "KICKOFF_ENGINE"

// EngineConfig holds per-engine settings.
type EngineConfig struct {
	Model      string        `yaml:"model" json:"model"`
	BaseURL    string        `yaml:"baseURL" json:"baseURL"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries int           `yaml:"maxRetries" json:"maxRetries"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Config is the effective configuration.
type Config struct {
	Engine      string                  `yaml:"engine" json:"engine"`
	MaxAttempts int                     `yaml:"maxAttempts" json:"maxAttempts"`
	OutputDir   string                  `yaml:"outputDir" json:"outputDir"`
	HTML        bool                    `yaml:"html" json:"html"`
	Snapshots   bool                    `yaml:"snapshots" json:"snapshots"`
	Engines     map[string]EngineConfig `yaml:"engines" json:"engines"`
	Server      ServerConfig            `yaml:"server" json:"server"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `yaml:"-" json:"-"`
}

// rawConfig is used for YAML unmarshaling to distinguish missing keys from explicit empty values.
type rawConfig struct {
	Engine      *string                     `yaml:"engine"`
	MaxAttempts *int                        `yaml:"maxAttempts"`
	OutputDir   *string                     `yaml:"outputDir"`
	HTML        *bool                       `yaml:"html"`
	Snapshots   *bool                       `yaml:"snapshots"`
	Engines     map[string]*rawEngineConfig `yaml:"engines"`
	Server      struct {
		Addr *string `yaml:"addr"`
	} `yaml:"server"`
}

// rawEngineConfig holds per-engine settings from YAML.
// Pointer fields distinguish "not set" (nil) from "set to empty string".
type rawEngineConfig struct {
	Model      *string `yaml:"model"`
	BaseURL    *string `yaml:"baseURL"`
	Timeout    *string `yaml:"timeout"`
	MaxRetries *int    `yaml:"maxRetries"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine:      "openai",
		MaxAttempts: 3,
		OutputDir:   template.DefaultOutputDir,
		Engines: map[string]EngineConfig{
			"openai": {Model: "gpt-4o-mini", Timeout: 3 * time.Minute, MaxRetries: 3},
			"claude": {Timeout: 10 * time.Minute},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Validate checks that the configuration fields are valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Engine) == "" {
		return fmt.Errorf("engine must not be empty")
	}
	if err := ValidateAttempts(c.MaxAttempts); err != nil {
		return fmt.Errorf("maxAttempts: %w", err)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("outputDir must not be empty")
	}
	for name, e := range c.Engines {
		if e.Timeout <= 0 {
			return fmt.Errorf("engines.%s.timeout must be greater than 0", name)
		}
		if e.MaxRetries < 0 {
			return fmt.Errorf("engines.%s.maxRetries must not be negative", name)
		}
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

// MarshalYAML writes the configuration in config-file form, with timeouts
// as duration strings.
func (c Config) MarshalYAML() (any, error) {
	type fileEngine struct {
		Model      string `yaml:"model"`
		BaseURL    string `yaml:"baseURL"`
		Timeout    string `yaml:"timeout"`
		MaxRetries int    `yaml:"maxRetries"`
	}
	type fileConfig struct {
		Engine      string                `yaml:"engine"`
		MaxAttempts int                   `yaml:"maxAttempts"`
		OutputDir   string                `yaml:"outputDir"`
		HTML        bool                  `yaml:"html"`
		Snapshots   bool                  `yaml:"snapshots"`
		Engines     map[string]fileEngine `yaml:"engines"`
		Server      ServerConfig          `yaml:"server"`
	}

	out := fileConfig{
		Engine:      c.Engine,
		MaxAttempts: c.MaxAttempts,
		OutputDir:   c.OutputDir,
		HTML:        c.HTML,
		Snapshots:   c.Snapshots,
		Engines:     make(map[string]fileEngine, len(c.Engines)),
		Server:      c.Server,
	}
	for name, e := range c.Engines {
		out.Engines[name] = fileEngine{Model: e.Model, BaseURL: e.BaseURL, Timeout: e.Timeout.String(), MaxRetries: e.MaxRetries}
	}
	return out, nil
}

// ValidateAttempts checks an attempt budget against the accepted range.
func ValidateAttempts(n int) error {
	if n < MinAttempts || n > MaxAttempts {
		return fmt.Errorf("must be between %d and %d, got %d", MinAttempts, MaxAttempts, n)
	}
	return nil
}

// FilePath returns the config file location under dir.
func FilePath(dir string) string {
	return filepath.Join(dir, template.KickoffDir, template.ConfigFile)
}

// Load reads configuration from .kickoff/config.yaml in the given directory.
// If the config file doesn't exist, defaults are returned. KICKOFF_ENGINE
// overrides the engine in both cases.
func Load(dir string) (*Config, error) {
	cfg := Default()
	path := FilePath(dir)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Path = path
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if env := strings.TrimSpace(os.Getenv(EngineEnv)); env != "" {
		cfg.Engine = env
	}
	cfg.Engine = strings.ToLower(cfg.Engine)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// merge applies keys set in YAML over the current values.
func (c *Config) merge(data []byte) error {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Engine != nil {
		c.Engine = *raw.Engine
	}
	if raw.MaxAttempts != nil {
		c.MaxAttempts = *raw.MaxAttempts
	}
	if raw.OutputDir != nil {
		c.OutputDir = *raw.OutputDir
	}
	if raw.HTML != nil {
		c.HTML = *raw.HTML
	}
	if raw.Snapshots != nil {
		c.Snapshots = *raw.Snapshots
	}
	if raw.Server.Addr != nil {
		c.Server.Addr = *raw.Server.Addr
	}

	for name, re := range raw.Engines {
		if re == nil {
			continue
		}
		name = strings.ToLower(name)
		e, ok := c.Engines[name]
		if !ok {
			e = EngineConfig{Timeout: 10 * time.Minute}
		}
		if re.Model != nil {
			e.Model = *re.Model
		}
		if re.BaseURL != nil {
			e.BaseURL = *re.BaseURL
		}
		if re.Timeout != nil {
			d, err := time.ParseDuration(*re.Timeout)
			if err != nil {
				return fmt.Errorf("engines.%s.timeout: %w", name, err)
			}
			e.Timeout = d
		}
		if re.MaxRetries != nil {
			e.MaxRetries = *re.MaxRetries
		}
		c.Engines[name] = e
	}
	return nil
}

// GeneratorConfig returns backend settings for the named engine.
func (c *Config) GeneratorConfig(name string) *generator.Config {
	e := c.Engines[strings.ToLower(name)]
	return &generator.Config{
		Model:      e.Model,
		BaseURL:    e.BaseURL,
		Timeout:    e.Timeout,
		MaxRetries: e.MaxRetries,
	}
}
