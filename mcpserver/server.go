// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the sandbox operations as MCP tools. It uses the
// mark3labs/mcp-go library to handle the protocol details and forwards every tool
// call to sandbox.Invoke.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/MakeNowJust/heredoc"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/fsbox/config"
	"github.com/isdmx/fsbox/metrics"
	"github.com/isdmx/fsbox/sandbox"
)

const (
	serverName    = "fsbox"
	serverVersion = "1.0.0"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	sandbox   *sandbox.Sandbox
	metrics   *metrics.Collector
	mcpServer *server.MCPServer

	mu         sync.Mutex
	httpServer *server.StreamableHTTPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, sb *sandbox.Sandbox, m *metrics.Collector) (*MCPServer, error) {
	if sb == nil {
		return nil, errors.New("sandbox is required")
	}
	if m == nil {
		m = metrics.New()
	}

	s := &MCPServer{
		config:  cfg,
		logger:  logger,
		sandbox: sb,
		metrics: m,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("sandbox.root", sb.Root().Path()),
		zap.Int("sandbox.timeout_sec", sb.Config().TimeoutSec),
		zap.Int("sandbox.max_file_chars", sb.Config().MaxFileChars),
		zap.Int("sandbox.max_output_bytes", sb.Config().MaxOutputBytes),
		zap.String("sandbox.interpreter", sb.Config().Interpreter),
		zap.String("sandbox.script_extension", sb.Config().ScriptExtension),
		zap.Bool("metrics.enabled", cfg.Metrics.Enabled),
	)

	s.mcpServer = server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	for _, tool := range s.tools() {
		s.mcpServer.AddTool(tool, s.handleTool)
	}

	return s, nil
}

func (s *MCPServer) tools() []mcp.Tool {
	ext := s.sandbox.Config().ScriptExtension

	return []mcp.Tool{
		mcp.NewTool(sandbox.OpListDirectory,
			mcp.WithDescription(heredoc.Doc(`
				Lists the immediate children of a directory inside the working directory,
				one per line as "name: file_size=N, is_dir=True|False".
				If the directory does not exist at the given path, the working directory
				is searched recursively for a directory with that name.
			`)),
			mcp.WithString("directory",
				mcp.Description(`Directory to list, relative to the working directory. Defaults to ".".`),
			),
		),
		mcp.NewTool(sandbox.OpReadFile,
			mcp.WithDescription(heredoc.Docf(`
				Returns the text content of a file inside the working directory.
				Content longer than %d characters is truncated and marked as such.
				If the file does not exist at the given path, the working directory
				is searched recursively for a file with the same name.
			`, s.sandbox.Config().MaxFileChars)),
			mcp.WithString("file_path",
				mcp.Required(),
				mcp.Description("Path of the file to read, relative to the working directory."),
			),
		),
		mcp.NewTool(sandbox.OpWriteFile,
			mcp.WithDescription(heredoc.Doc(`
				Writes content to a file inside the working directory, creating missing
				parent directories and overwriting any existing file.
				If neither the file nor its directory exists, an existing file with the
				same name elsewhere in the working directory is overwritten instead.
			`)),
			mcp.WithString("file_path",
				mcp.Required(),
				mcp.Description("Path of the file to write, relative to the working directory."),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Text to write to the file."),
			),
		),
		mcp.NewTool(sandbox.OpRunScript,
			mcp.WithDescription(heredoc.Docf(`
				Runs a %s script inside the working directory with %s and returns its
				stdout, stderr and exit code. The script is killed after %d seconds.
				If the script does not exist at the given path, the working directory
				is searched recursively for a file with the same name.
			`, ext, s.sandbox.Config().Interpreter, s.sandbox.Config().TimeoutSec)),
			mcp.WithString("file_path",
				mcp.Required(),
				mcp.Description(fmt.Sprintf("Path of the %s script, relative to the working directory.", ext)),
			),
			mcp.WithArray("args",
				mcp.WithStringItems(),
				mcp.Description("Command-line arguments passed to the script."),
			),
		),
	}
}

// handleTool forwards a tool call to the sandbox. Operation failures are reported as
// tool results with IsError set, never as protocol errors.
func (s *MCPServer) handleTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op := request.Params.Name
	args := request.GetArguments()
	logger := s.logger.With(
		zap.String("call_id", uuid.NewString()),
		zap.String("operation", op),
	)
	logger.Info("tool call received", zap.Any("arguments", loggedArguments(args)))

	done := s.metrics.Start(op)
	result := s.sandbox.Invoke(ctx, op, args)

	if result.IsError() {
		done(result.Err.Kind.String())
		logger.Warn("tool call failed",
			zap.Stringer("kind", result.Err.Kind),
			zap.String("path", result.Err.Path),
			zap.Error(result.Err))
		return mcp.NewToolResultError(result.String()), nil
	}

	done(metrics.OutcomeOK)
	if s.truncated(op, args, result.Text) {
		s.metrics.Truncated(op)
		logger.Info("result truncated")
	}
	logger.Info("tool call completed", zap.Int("result_len", len(result.Text)))

	return mcp.NewToolResultText(result.Text), nil
}

func (s *MCPServer) truncated(op string, args map[string]any, text string) bool {
	switch op {
	case sandbox.OpReadFile:
		path, _ := args["file_path"].(string)
		return sandbox.IsTruncated(text, path, s.sandbox.Config().MaxFileChars)
	case sandbox.OpRunScript:
		return strings.Contains(text, sandbox.OutputTruncatedPrefix)
	}
	return false
}

// loggedArguments drops file content from logs; only its size is kept.
func loggedArguments(args map[string]any) map[string]any {
	content, ok := args["content"].(string)
	if !ok {
		return args
	}
	logged := make(map[string]any, len(args))
	for k, v := range args {
		logged[k] = v
	}
	logged["content"] = fmt.Sprintf("<%d bytes>", len(content))
	return logged
}

// ServeStdio serves the MCP protocol on stdin/stdout until ctx is done or stdin closes
func (s *MCPServer) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio")
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport failed: %w", err)
	}
	return nil
}

// ServeHTTP starts the server on HTTP and blocks until it is shut down
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	err := httpServer.Start(fmt.Sprintf(":%d", port))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http transport failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP transport if it was started
func (s *MCPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}
	s.logger.Info("stopping MCP HTTP server")
	return httpServer.Shutdown(ctx)
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
