// Package config provides application configuration management.
//
// The config package loads the server, sandbox, logging and metrics settings
// from a YAML file, FSBOX_* environment variables and an optional .env file,
// applies defaults and validates the result.
//
// Usage:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Sandbox root: %s\n", cfg.Sandbox.Root)
package config
