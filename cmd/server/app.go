package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/fsbox/config"
	"github.com/isdmx/fsbox/logger"
	"github.com/isdmx/fsbox/mcpserver"
	"github.com/isdmx/fsbox/metrics"
	"github.com/isdmx/fsbox/sandbox"
)

const metricsReadHeaderTimeout = 5 * time.Second

func newApp(cfg *config.Config) *fx.App {
	return fx.New(
		appOptions(cfg),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)
}

func appOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Provide(
			// Logger with configuration
			logger.NewFromConfig,

			// Sandbox rooted at sandbox.root
			sandbox.NewFromConfig,

			// Metrics registry
			metrics.New,

			// MCP Server
			mcpserver.New,
		),

		// Start the configured transport and the metrics listener
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *mcpserver.MCPServer,
	m *metrics.Collector,
) {
	serveCtx, cancelServe := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			switch cfg.Server.Transport {
			case "stdio":
				go func() {
					err := server.ServeStdio(serveCtx)
					if err != nil {
						log.Error("stdio transport stopped", zap.Error(err))
						_ = shutdowner.Shutdown(fx.ExitCode(1))
						return
					}
					// stdin closed: the client is gone
					_ = shutdowner.Shutdown()
				}()
			case "http":
				go func() {
					if err := server.ServeHTTP(); err != nil {
						log.Error("http transport stopped", zap.Error(err))
						_ = shutdowner.Shutdown(fx.ExitCode(1))
					}
				}()
			default:
				return fmt.Errorf("unsupported transport: %s", cfg.Server.Transport)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelServe()
			return server.Shutdown(ctx)
		},
	})

	if !cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			listener, err := net.Listen("tcp", metricsServer.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen for metrics on %s: %w", metricsServer.Addr, err)
			}
			log.Info("serving metrics", zap.String("address", listener.Addr().String()))
			go func() {
				if err := metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("metrics server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return metricsServer.Shutdown(ctx)
		},
	})
}
