// Package config provides configuration loading and parsing functionality
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFormat represents the configuration file format
type ConfigFormat string

const (
	FormatYAML ConfigFormat = "yaml"
	FormatJSON ConfigFormat = "json"
)

// Loader handles configuration loading from various sources
type Loader struct {
	// Configuration search paths
	searchPaths []string

	// Environment variable prefix
	envPrefix string

	// Default configuration
	defaultConfig *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		searchPaths: []string{
			".",
			"./config",
			"/etc/gridlock",
			os.Getenv("HOME") + "/.gridlock",
		},
		envPrefix:     "GRIDLOCK",
		defaultConfig: DefaultConfig(),
	}
}

// SetSearchPaths sets the configuration file search paths
func (l *Loader) SetSearchPaths(paths []string) *Loader {
	l.searchPaths = paths
	return l
}

// SetEnvPrefix sets the environment variable prefix
func (l *Loader) SetEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// SetDefaultConfig sets the default configuration
func (l *Loader) SetDefaultConfig(config *Config) *Loader {
	l.defaultConfig = config
	return l
}

// Load loads configuration from the specified file, falling back to
// defaults when filename is empty
func (l *Loader) Load(filename string) (*Config, error) {
	config := l.defaults()

	if filename != "" {
		fileConfig, err := l.loadFromFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", filename, err)
		}
		config = fileConfig
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific file
func (l *Loader) LoadFromFile(filename string) (*Config, error) {
	config, err := l.loadFromFile(filename)
	if err != nil {
		return nil, err
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadFromReader loads configuration from an io.Reader
func (l *Loader) LoadFromReader(reader io.Reader, format ConfigFormat) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration data: %w", err)
	}
	return l.parseConfig(data, format)
}

// AutoLoad automatically discovers and loads configuration
func (l *Loader) AutoLoad() (*Config, error) {
	configFile, err := l.findConfigFile()
	if err != nil {
		if err == ErrConfigFileNotFound {
			// No file anywhere: defaults plus environment overrides.
			config := l.defaults()
			l.applyEnv(config)
			if err := config.Validate(); err != nil {
				return nil, fmt.Errorf("configuration validation failed: %w", err)
			}
			return config, nil
		}
		return nil, err
	}
	return l.LoadFromFile(configFile)
}

// findConfigFile searches for configuration files in search paths
func (l *Loader) findConfigFile() (string, error) {
	filenames := []string{
		"gridlock.yaml", "gridlock.yml",
		"config.yaml", "config.yml",
		"gridlock.json", "config.json",
	}

	for _, searchPath := range l.searchPaths {
		for _, filename := range filenames {
			fullPath := filepath.Join(searchPath, filename)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}
	return "", ErrConfigFileNotFound
}

// loadFromFile reads and parses one configuration file
func (l *Loader) loadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	format, err := formatForFile(filename)
	if err != nil {
		return nil, err
	}
	return l.parseConfig(data, format)
}

// parseConfig unmarshals data over a copy of the defaults, so missing
// fields keep their default values
func (l *Loader) parseConfig(data []byte, format ConfigFormat) (*Config, error) {
	config := l.defaults()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", ErrConfigParseError, format)
	}
	return config, nil
}

// defaults returns an independent copy of the default configuration
func (l *Loader) defaults() *Config {
	base := l.defaultConfig
	if base == nil {
		base = DefaultConfig()
	}
	copied := *base
	return &copied
}

// applyEnv overrides configuration fields from environment variables
func (l *Loader) applyEnv(config *Config) {
	if v := l.env("APP_NAME"); v != "" {
		config.App.Name = v
	}
	if v := l.env("APP_ENVIRONMENT"); v != "" {
		config.App.Environment = Environment(v)
	}
	if v := l.env("APP_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			config.App.Debug = debug
		}
	}
	if v := l.env("POOL_CORE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pool.CoreSize = n
		}
	}
	if v := l.env("POOL_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pool.MaxSize = n
		}
	}
	if v := l.env("QUEUE_CONSUMERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Queue.Consumers = n
		}
	}
	if v := l.env("GAME_DIFFICULTY"); v != "" {
		config.Game.Difficulty = strings.ToLower(v)
	}
	if v := l.env("GAME_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Game.Seed = n
		}
	}
	if v := l.env("PERSISTENCE_PATH"); v != "" {
		config.Persistence.Path = v
	}
}

// env reads one prefixed environment variable
func (l *Loader) env(key string) string {
	return os.Getenv(l.envPrefix + "_" + key)
}

// formatForFile determines the configuration format from a file name
func formatForFile(filename string) (ConfigFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported extension on %s", ErrConfigParseError, filename)
	}
}
