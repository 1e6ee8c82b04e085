// Package sandbox provides filesystem and script-execution operations confined to a single root directory.
package sandbox

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Defaults applied when a Config field is left zero
const (
	DefaultTimeoutSec      = 30
	DefaultMaxFileChars    = 10240
	DefaultInterpreter     = "python3"
	DefaultScriptExtension = ".py"
)

// Config holds the limits and execution settings of a Sandbox
type Config struct {
	TimeoutSec      int
	MaxFileChars    int
	MaxOutputBytes  int
	Interpreter     string
	ScriptExtension string
}

func (c Config) withDefaults() Config {
	if c.TimeoutSec <= 0 {
		c.TimeoutSec = DefaultTimeoutSec
	}
	if c.MaxFileChars <= 0 {
		c.MaxFileChars = DefaultMaxFileChars
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if c.Interpreter == "" {
		c.Interpreter = DefaultInterpreter
	}
	if c.ScriptExtension == "" {
		c.ScriptExtension = DefaultScriptExtension
	}
	return c
}

// Timeout returns the script execution timeout as a duration
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Sandbox runs the list, read, write and run operations against one fixed Root.
// It holds no mutable state, so its methods may be called repeatedly; concurrent
// writes to the same file are not serialized.
type Sandbox struct {
	root      Root
	config    Config
	logger    *zap.Logger
	fs        FileSystem
	cmdRunner CommandRunner
	timeout   time.Duration
}

// Option defines a functional option for Sandbox
type Option func(*Sandbox)

// WithFileSystem sets the FileSystem used after path resolution
func WithFileSystem(fs FileSystem) Option {
	return func(s *Sandbox) {
		s.fs = fs
	}
}

// WithCommandRunner sets the CommandRunner used by RunScript
func WithCommandRunner(cmdRunner CommandRunner) Option {
	return func(s *Sandbox) {
		s.cmdRunner = cmdRunner
	}
}

// WithTimeout overrides the script timeout with a duration finer than whole seconds
func WithTimeout(timeout time.Duration) Option {
	return func(s *Sandbox) {
		s.timeout = timeout
	}
}

// New creates a Sandbox rooted at dir
func New(logger *zap.Logger, dir string, config Config, opts ...Option) (*Sandbox, error) {
	root, err := NewRoot(dir)
	if err != nil {
		return nil, err
	}

	config = config.withDefaults()
	s := &Sandbox{
		root:      root,
		config:    config,
		logger:    logger,
		fs:        RealFileSystem{},
		cmdRunner: RealCommandRunner{MaxOutputBytes: config.MaxOutputBytes},
		timeout:   config.Timeout(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.timeout <= 0 {
		return nil, fmt.Errorf("script timeout must be positive, got: %s", s.timeout)
	}

	return s, nil
}

// Root returns the sandbox root
func (s *Sandbox) Root() Root {
	return s.root
}

// Config returns the effective configuration, defaults included
func (s *Sandbox) Config() Config {
	return s.config
}

// resolve wraps Resolve with debug logging of fallback hits.
func (s *Sandbox) resolve(requested string, mode Mode) (string, error) {
	resolved, err := Resolve(s.root, requested, mode)
	if err != nil {
		s.logger.Debug("path resolution failed",
			zap.String("path", requested),
			zap.Stringer("kind", KindOf(err)))
		return "", err
	}
	if literal, locErr := locate(s.root, requested); locErr == nil && literal != resolved {
		s.logger.Debug("path resolved by fallback search",
			zap.String("path", requested),
			zap.String("resolved", resolved))
	}
	return resolved, nil
}
