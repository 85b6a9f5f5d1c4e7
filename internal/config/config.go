// Package config loads dbcctl settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/dbckit/internal/logger"
	"github.com/joshuapare/dbckit/internal/patchtext"
)

// DefaultFileName is looked up in the working directory when no config path
// is given.
const DefaultFileName = "dbcctl.yaml"

// Config represents the dbcctl configuration
type Config struct {
	TableDir           string   `yaml:"table_dir"`
	PatchDir           string   `yaml:"patch_dir"`
	SchemaDirs         []string `yaml:"schema_dirs"`
	OutDir             string   `yaml:"out_dir"`
	CacheDir           string   `yaml:"cache_dir"`
	Parallelism        int      `yaml:"parallelism"`
	ReserveEmptyString bool     `yaml:"reserve_empty_string"`
	InputEncoding      string   `yaml:"input_encoding"`
	MetricsFile        string   `yaml:"metrics_file"`
	Logging            Logging  `yaml:"logging"`
	Server             Server   `yaml:"server"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// Server contains the HTTP service configuration
type Server struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Addr returns bind:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		TableDir:           "dbc",
		PatchDir:           "patches",
		SchemaDirs:         []string{"schema"},
		OutDir:             "build",
		Parallelism:        4,
		ReserveEmptyString: true,
		Logging: Logging{
			Level:  "info",
			Format: logger.FormatText,
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values. Relative directories are resolved
// against the directory holding the file.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.resolve(filepath.Dir(absPath))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return config, nil
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.TableDir = abs(c.TableDir)
	c.PatchDir = abs(c.PatchDir)
	c.OutDir = abs(c.OutDir)
	c.CacheDir = abs(c.CacheDir)
	c.MetricsFile = abs(c.MetricsFile)
	c.Logging.Dir = abs(c.Logging.Dir)
	for i, d := range c.SchemaDirs {
		c.SchemaDirs[i] = abs(d)
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must be >= 0, got %d", c.Parallelism))
	}
	if c.OutDir == "" {
		errs = append(errs, errors.New("out_dir must be set"))
	}
	if !patchtext.ValidEncoding(c.InputEncoding) {
		errs = append(errs, fmt.Errorf("unsupported input_encoding %q", c.InputEncoding))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
