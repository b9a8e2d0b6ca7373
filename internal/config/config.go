package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fraudcheck/cli/internal/utils"
)

const (
	envPrefix      = "FRAUDCHECK"
	configName     = ".fraudcheck"
	defaultBaseURL = "http://localhost:8080/api/v1"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Verify  VerifyConfig  `yaml:"verify" mapstructure:"verify"`
	Format  FormatConfig  `yaml:"format" mapstructure:"format"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ServerConfig contains backend connection settings
type ServerConfig struct {
	URL       string  `yaml:"url" mapstructure:"url"`
	Timeout   string  `yaml:"timeout" mapstructure:"timeout"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SessionConfig contains credential storage settings
type SessionConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// VerifyConfig contains verification settings
type VerifyConfig struct {
	HistorySize int `yaml:"history_size" mapstructure:"history_size"`
}

// FormatConfig contains output formatting settings
type FormatConfig struct {
	Default string `yaml:"default" mapstructure:"default"`
	Colors  bool   `yaml:"colors" mapstructure:"colors"`
}

// LogConfig contains diagnostic logging settings
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TimeoutDuration parses the configured request timeout
func (s ServerConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server.timeout %q: %w", s.Timeout, err)
	}
	return d, nil
}

// SessionPath returns the session file path with a leading ~ expanded
func (s SessionConfig) SessionPath() (string, error) {
	return expandHome(s.File)
}

var (
	globalConfig *Config
	v            = viper.New()
	configPath   string
	debug        bool
	outputFormat string
)

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			URL:       defaultBaseURL,
			Timeout:   "30s",
			RateLimit: 10,
		},
		Session: SessionConfig{File: filepath.Join("~", ".fraudcheck", "session.yaml")},
		Verify:  VerifyConfig{HistorySize: 50},
		Format:  FormatConfig{Default: "table", Colors: true},
		Log:     LogConfig{Level: "warn", Format: "text"},
	}
}

// Initialize loads the configuration from file, .env and the environment
func Initialize(configFile string) error {
	// A missing .env is fine; variables already set win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not load .env: %w", err)
	}

	v = viper.New()

	if configFile != "" {
		configPath = configFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get home directory: %w", err)
		}
		configPath = filepath.Join(home, configName+".yaml")
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("could not read config file: %w", err)
		}
		if err := createDefaultConfig(); err != nil {
			return fmt.Errorf("could not create default config: %w", err)
		}
	}

	globalConfig = &Config{}
	if err := v.Unmarshal(globalConfig); err != nil {
		return fmt.Errorf("could not unmarshal config: %w", err)
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	d := Defaults()
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("session.file", d.Session.File)
	v.SetDefault("verify.history_size", d.Verify.HistorySize)
	v.SetDefault("format.default", d.Format.Default)
	v.SetDefault("format.colors", d.Format.Colors)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// createDefaultConfig creates a default configuration file
func createDefaultConfig() error {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		d := Defaults()
		globalConfig = &d
	}
	return globalConfig
}

// Path returns the config file in use
func Path() string {
	return configPath
}

// Keys lists every known setting
func Keys() []string {
	return []string{
		"server.url", "server.timeout", "server.rate_limit",
		"session.file", "verify.history_size",
		"format.default", "format.colors",
		"log.level", "log.format",
	}
}

// Set updates one setting, validating it, and persists the file
func Set(key, value string) error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	known := false
	for _, k := range Keys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown setting %q", key)
	}

	prev := v.Get(key)
	v.Set(key, value)

	next := &Config{}
	err := v.Unmarshal(next)
	if err == nil {
		_, err = next.Server.TimeoutDuration()
	}
	if err == nil {
		err = utils.ValidateURL(next.Server.URL)
	}
	if err != nil {
		v.Set(key, prev)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	globalConfig = next
	return Save()
}

// Save saves the current configuration to file
func Save() error {
	if globalConfig == nil {
		return fmt.Errorf("no configuration to save")
	}

	data, err := yaml.Marshal(globalConfig)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// SetDebug sets the debug mode
func SetDebug(enabled bool) {
	debug = enabled
}

// IsDebug returns whether debug mode is enabled
func IsDebug() bool {
	return debug
}

// SetOutputFormat sets the output format
func SetOutputFormat(format string) {
	outputFormat = format
}

// GetOutputFormat returns the current output format
func GetOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	if globalConfig != nil && globalConfig.Format.Default != "" {
		return globalConfig.Format.Default
	}
	return "table"
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
