package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/fsbox/config"
	"github.com/isdmx/fsbox/logger"
	"github.com/isdmx/fsbox/mcpserver"
	"github.com/isdmx/fsbox/metrics"
	"github.com/isdmx/fsbox/sandbox"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Sandbox: config.SandboxConfig{
			Root:            t.TempDir(),
			TimeoutSec:      10,
			MaxFileChars:    10240,
			MaxOutputBytes:  1 << 20,
			Interpreter:     "python3",
			ScriptExtension: ".py",
		},
		Logging: config.LoggingConfig{
			Mode:  "development",
			Level: "debug",
		},
		Metrics: config.MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
	}
}

// TestIntegrationConfigLoggerSandbox tests the integration between config, logger, and sandbox packages
func TestIntegrationConfigLoggerSandbox(t *testing.T) {
	t.Run("ConfigAndLoggerIntegration", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, cfg.Validate())

		testLogger, err := logger.NewFromConfig(cfg)
		require.NoError(t, err)
		require.NotNil(t, testLogger)

		testLogger.Info("Integration test started")
		_ = testLogger.Sync()
	})

	t.Run("ConfigLoggerSandboxFactoryIntegration", func(t *testing.T) {
		cfg := testConfig(t)
		testLogger := zaptest.NewLogger(t)

		sb, err := sandbox.NewFromConfig(testLogger, cfg)
		require.NoError(t, err)

		ctx := context.Background()
		result := sb.Invoke(ctx, sandbox.OpWriteFile, map[string]any{
			"file_path": "pkg/calc/README.md",
			"content":   "calculator",
		})
		require.False(t, result.IsError(), result.String())

		// A wrong directory still finds the file by name.
		result = sb.Invoke(ctx, "get_file_content", map[string]any{"file_path": "docs/README.md"})
		require.False(t, result.IsError(), result.String())
		assert.Equal(t, "calculator", result.Text)

		result = sb.Invoke(ctx, sandbox.OpListDirectory, map[string]any{"directory": "calc"})
		require.False(t, result.IsError(), result.String())
		assert.Equal(t, "README.md: file_size=10, is_dir=False", result.Text)

		result = sb.Invoke(ctx, sandbox.OpReadFile, map[string]any{"file_path": "../../etc/passwd"})
		require.True(t, result.IsError())
		assert.True(t, strings.HasPrefix(result.String(), "Error: Access denied"))
	})

	t.Run("InvalidRoot", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Sandbox.Root = filepath.Join(cfg.Sandbox.Root, "absent")

		_, err := sandbox.NewFromConfig(zaptest.NewLogger(t), cfg)
		assert.Error(t, err)
	})
}

// TestIntegrationMCPServer drives the tools through an in-process MCP client
func TestIntegrationMCPServer(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	testLogger := zaptest.NewLogger(t)

	sb, err := sandbox.NewFromConfig(testLogger, cfg)
	require.NoError(t, err)
	collector := metrics.New()

	srv, err := mcpserver.New(cfg, testLogger, sb, collector)
	require.NoError(t, err)

	client, err := mcpclient.NewInProcessClient(srv.GetMCPServer())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "fsbox-test", Version: "0.0.1"}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	_, err = client.Initialize(ctx, initReq)
	require.NoError(t, err)

	t.Run("ListTools", func(t *testing.T) {
		tools, err := client.ListTools(ctx, mcp.ListToolsRequest{})
		require.NoError(t, err)

		var names []string
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, sandbox.Operations(), names)
	})

	call := func(t *testing.T, name string, args map[string]any) (string, bool) {
		t.Helper()
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		result, err := client.CallTool(ctx, req)
		require.NoError(t, err)
		require.Len(t, result.Content, 1)
		text, ok := mcp.AsTextContent(result.Content[0])
		require.True(t, ok)
		return text.Text, result.IsError
	}

	t.Run("WriteListRead", func(t *testing.T) {
		text, isError := call(t, sandbox.OpWriteFile, map[string]any{"file_path": "a.txt", "content": "hello"})
		require.False(t, isError, text)

		text, isError = call(t, sandbox.OpListDirectory, map[string]any{})
		require.False(t, isError, text)
		assert.Equal(t, "a.txt: file_size=5, is_dir=False", text)

		text, isError = call(t, sandbox.OpReadFile, map[string]any{"file_path": "a.txt"})
		require.False(t, isError, text)
		assert.Equal(t, "hello", text)
	})

	t.Run("FailureIsToolError", func(t *testing.T) {
		text, isError := call(t, sandbox.OpWriteFile, map[string]any{"file_path": "../escape.txt", "content": "x"})
		assert.True(t, isError)
		assert.True(t, strings.HasPrefix(text, "Error: Access denied"), text)
		_, statErr := os.Stat(filepath.Join(filepath.Dir(sb.Root().Path()), "escape.txt"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("MetricsRecorded", func(t *testing.T) {
		assert.InDelta(t, 1, testutil.ToFloat64(collector.OperationsTotal.WithLabelValues(sandbox.OpWriteFile, "AccessDenied")), 0)
		assert.GreaterOrEqual(t, testutil.ToFloat64(collector.OperationsTotal.WithLabelValues(sandbox.OpReadFile, metrics.OutcomeOK)), 1.0)
	})
}
