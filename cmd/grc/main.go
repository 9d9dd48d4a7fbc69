package main

import (
	"context"
	"fmt"
	"os"

	"github.com/complyscan/grc-engine/internal/config"
	"github.com/complyscan/grc-engine/internal/logger"
	"github.com/complyscan/grc-engine/internal/report"
)

var (
	version = report.Version
	commit  = "dev"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "scan":
		runScan(ctx, os.Args[2:])
	case "patterns":
		runPatterns(ctx, os.Args[2:])
	case "evidence":
		runEvidence(ctx, os.Args[2:])
	case "version", "--version":
		fmt.Printf("grc-engine %s (commit: %s, built: %s)\n", version, commit, date)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`grc - Regulatory compliance scoring for any codebase

Usage:
  grc <command> [options]

Commands:
  scan      Scan a source tree for compliance patterns and score coverage
  patterns  Inspect the compliance pattern catalog
  evidence  Manage the evidence store
  version   Show version information

Use "grc <command> --help" for more information about a command.`)
}

// bootstrap loads configuration and builds the process logger.
func bootstrap(configPath string) (*config.Config, *logger.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return cfg, log
}
