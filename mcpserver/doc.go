// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package registers list_directory, read_file, write_file and
// run_script as MCP tools backed by a sandbox.Sandbox. Every call is logged with
// a call_id and counted in the metrics collector.
//
// Usage:
//
//	server, err := mcpserver.New(cfg, logger, sb, metrics.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio(ctx) // or server.ServeHTTP()
package mcpserver
