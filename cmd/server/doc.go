// Package main is the entry point for the fsbox MCP server.
//
// The fsbox server exposes a directory as a sandbox to an agent over the Model
// Context Protocol. It lists, reads and writes files under that directory and
// runs scripts in it with a timeout. The server supports both stdio and HTTP
// transports and can expose Prometheus metrics.
//
// The application uses cobra for its command line, Uber's fx framework for
// dependency injection and lifecycle management, zap for structured logging
// and viper for configuration.
package main
