package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: "http",
			HTTPPort:  8080,
		},
		Sandbox: SandboxConfig{
			Root:            ".",
			TimeoutSec:      30,
			MaxFileChars:    10240,
			MaxOutputBytes:  1 << 20,
			Interpreter:     "python3",
			ScriptExtension: ".py",
		},
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		require.NoError(t, validConfig().validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"InvalidServerTransport", func(c *Config) { c.Server.Transport = "invalid" }, "invalid server.transport"},
		{"InvalidHTTPPort", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid server.http_port"},
		{"EmptyRoot", func(c *Config) { c.Sandbox.Root = "" }, "sandbox.root must not be empty"},
		{"InvalidSandboxTimeout", func(c *Config) { c.Sandbox.TimeoutSec = 0 }, "sandbox.timeout_sec must be positive"},
		{"InvalidMaxFileChars", func(c *Config) { c.Sandbox.MaxFileChars = -1 }, "sandbox.max_file_chars must be positive"},
		{"InvalidMaxOutputBytes", func(c *Config) { c.Sandbox.MaxOutputBytes = 0 }, "sandbox.max_output_bytes must be positive"},
		{"EmptyInterpreter", func(c *Config) { c.Sandbox.Interpreter = " " }, "sandbox.interpreter must not be empty"},
		{"ExtensionWithoutDot", func(c *Config) { c.Sandbox.ScriptExtension = "py" }, "invalid sandbox.script_extension"},
		{"InvalidLoggingMode", func(c *Config) { c.Logging.Mode = "invalid_mode" }, "invalid logging.mode"},
		{"InvalidLogLevel", func(c *Config) { c.Logging.Level = "invalid_level" }, "invalid logging.level"},
		{"MetricsWithoutAddress", func(c *Config) { c.Metrics = MetricsConfig{Enabled: true} }, "metrics.address must be set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("StdioIgnoresHTTPPort", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Transport = "stdio"
		cfg.Server.HTTPPort = 0
		require.NoError(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, "stdio", cfg.Server.Transport)
		assert.Equal(t, ".", cfg.Sandbox.Root)
		assert.Equal(t, 30, cfg.Sandbox.TimeoutSec)
		assert.Equal(t, 10240, cfg.Sandbox.MaxFileChars)
		assert.Equal(t, "python3", cfg.Sandbox.Interpreter)
		assert.Equal(t, ".py", cfg.Sandbox.ScriptExtension)
		assert.Equal(t, "production", cfg.Logging.Mode)
		assert.False(t, cfg.Metrics.Enabled)
	})

	t.Run("FromFile", func(t *testing.T) {
		fileCfg := validConfig()
		fileCfg.Sandbox.Root = "/srv/workspace"
		fileCfg.Sandbox.TimeoutSec = 12
		fileCfg.Sandbox.Interpreter = "python3.12"
		fileCfg.Logging.Mode = "development"

		data, err := yaml.Marshal(fileCfg)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "fsbox.yaml")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http", cfg.Server.Transport)
		assert.Equal(t, "/srv/workspace", cfg.Sandbox.Root)
		assert.Equal(t, 12, cfg.Sandbox.TimeoutSec)
		assert.Equal(t, "python3.12", cfg.Sandbox.Interpreter)
		assert.Equal(t, "development", cfg.Logging.Mode)
	})

	t.Run("EnvironmentOverridesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fsbox.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sandbox:\n  timeout_sec: 12\n"), 0o600))
		t.Setenv("FSBOX_SANDBOX_TIMEOUT_SEC", "5")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Sandbox.TimeoutSec)
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("InvalidValues", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fsbox.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: carrier-pigeon\n"), 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation error")
	})
}

func TestConfigYAML(t *testing.T) {
	cfg := validConfig()
	out, err := cfg.YAML()
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, *cfg, decoded)
	assert.Contains(t, out, "interpreter: python3")
}

func TestGetTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Sandbox.TimeoutSec = 7
	assert.Equal(t, "7s", cfg.GetTimeout().String())
}
