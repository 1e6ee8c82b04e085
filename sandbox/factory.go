package sandbox

import (
	"go.uber.org/zap"

	"github.com/isdmx/fsbox/config"
)

// NewFromConfig creates a Sandbox from the application configuration
func NewFromConfig(logger *zap.Logger, cfg *config.Config) (*Sandbox, error) {
	sandboxConfig := Config{
		TimeoutSec:      cfg.Sandbox.TimeoutSec,
		MaxFileChars:    cfg.Sandbox.MaxFileChars,
		MaxOutputBytes:  cfg.Sandbox.MaxOutputBytes,
		Interpreter:     cfg.Sandbox.Interpreter,
		ScriptExtension: cfg.Sandbox.ScriptExtension,
	}

	s, err := New(logger, cfg.Sandbox.Root, sandboxConfig)
	if err != nil {
		return nil, err
	}

	logger.Info("sandbox ready",
		zap.String("root", s.Root().Path()),
		zap.String("interpreter", s.config.Interpreter),
		zap.String("script_extension", s.config.ScriptExtension),
		zap.Duration("timeout", s.timeout),
		zap.Int("max_file_chars", s.config.MaxFileChars))

	return s, nil
}
