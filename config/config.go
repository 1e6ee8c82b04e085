package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. FSBOX_SANDBOX_ROOT for sandbox.root
const EnvPrefix = "FSBOX"

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Sandbox SandboxConfig `mapstructure:"sandbox" yaml:"sandbox"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	HTTPPort  int    `mapstructure:"http_port" yaml:"http_port"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	Root            string `mapstructure:"root" yaml:"root"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	MaxFileChars    int    `mapstructure:"max_file_chars" yaml:"max_file_chars"`
	MaxOutputBytes  int    `mapstructure:"max_output_bytes" yaml:"max_output_bytes"`
	Interpreter     string `mapstructure:"interpreter" yaml:"interpreter"`
	ScriptExtension string `mapstructure:"script_extension" yaml:"script_extension"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode       string `mapstructure:"mode" yaml:"mode"`
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// New loads and validates the application configuration from the default locations
func New() (*Config, error) {
	return Load("")
}

// Load reads configuration from path, or from config.yaml in . or ./config when
// path is empty. A .env file in the working directory is loaded into the
// environment first; environment variables override file values.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)

	v.SetDefault("sandbox.root", ".")
	v.SetDefault("sandbox.timeout_sec", 30)
	v.SetDefault("sandbox.max_file_chars", 10240)
	v.SetDefault("sandbox.max_output_bytes", 1<<20)
	v.SetDefault("sandbox.interpreter", "python3")
	v.SetDefault("sandbox.script_extension", ".py")

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")
}

// Validate checks the configuration, e.g. after command-line overrides were applied
func (c *Config) Validate() error {
	return c.validate()
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.Transport == "http" && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	if c.Sandbox.Root == "" {
		return fmt.Errorf("sandbox.root must not be empty")
	}

	if c.Sandbox.TimeoutSec <= 0 {
		return fmt.Errorf("sandbox.timeout_sec must be positive, got: %d", c.Sandbox.TimeoutSec)
	}

	if c.Sandbox.MaxFileChars <= 0 {
		return fmt.Errorf("sandbox.max_file_chars must be positive, got: %d", c.Sandbox.MaxFileChars)
	}

	if c.Sandbox.MaxOutputBytes <= 0 {
		return fmt.Errorf("sandbox.max_output_bytes must be positive, got: %d", c.Sandbox.MaxOutputBytes)
	}

	if strings.TrimSpace(c.Sandbox.Interpreter) == "" {
		return fmt.Errorf("sandbox.interpreter must not be empty")
	}

	if !strings.HasPrefix(c.Sandbox.ScriptExtension, ".") || len(c.Sandbox.ScriptExtension) < 2 {
		return fmt.Errorf("invalid sandbox.script_extension: %q, must start with '.'", c.Sandbox.ScriptExtension)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics.address must be set when metrics are enabled")
	}

	return nil
}

// GetTimeout returns the script execution timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSec) * time.Second
}

// YAML renders the effective configuration
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("error marshaling config: %w", err)
	}
	return string(out), nil
}
