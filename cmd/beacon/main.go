// Package main is the entry point for the beacon CLI. Beacon pulls security
// findings for every account an MSP administers from the Blumira public API,
// snapshots them locally, and renders aggregate dashboards as HTML reports,
// an interactive terminal UI, or a local web server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joshsymonds/beacon/cmd/config"
	"github.com/joshsymonds/beacon/cmd/dash"
	"github.com/joshsymonds/beacon/cmd/fetch"
	"github.com/joshsymonds/beacon/cmd/list"
	"github.com/joshsymonds/beacon/cmd/report"
	"github.com/joshsymonds/beacon/cmd/serve"
	"github.com/joshsymonds/beacon/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	var (
		debug       bool
		logFormat   string
		showVersion bool
	)

	globalFlags := flag.NewFlagSet("beacon", flag.ExitOnError)
	globalFlags.BoolVar(&debug, "debug", false, "Enable debug logging")
	globalFlags.StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
	globalFlags.BoolVar(&showVersion, "version", false, "Show version information")

	if err := globalFlags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if showVersion {
		fmt.Printf("beacon version %s (built %s)\n", version, buildTime) //nolint:forbidigo
		os.Exit(0)
	}

	logger.SetupLogger(debug, logFormat)

	args := globalFlags.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "fetch":
		if err := fetch.Run(commandArgs); err != nil {
			logger.Error("fetch failed", "error", err)
			os.Exit(1)
		}
	case "report":
		if err := report.Run(commandArgs); err != nil {
			logger.Error("report generation failed", "error", err)
			os.Exit(1)
		}
	case "dash":
		if err := dash.Run(commandArgs); err != nil {
			logger.Error("dashboard failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := serve.Run(commandArgs); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case "list":
		if err := list.Run(commandArgs); err != nil {
			logger.Error("list failed", "error", err)
			os.Exit(1)
		}
	case "config":
		if err := config.Run(commandArgs); err != nil {
			logger.Error("config validation failed", "error", err)
			os.Exit(1)
		}
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	//nolint:forbidigo
	fmt.Println(`🛰️  Beacon Security Dashboard

Usage:
  beacon [global flags] <command> [command flags]

Commands:
  fetch    Fetch accounts and findings into a local snapshot
  report   Generate a dashboard report from a snapshot
  dash     Browse a snapshot in an interactive terminal dashboard
  serve    Serve the dashboard over HTTP
  list     List saved snapshots and fetch history
  config   Validate configuration
  help     Show this help message

Global Flags:
  --debug         Enable debug logging
  --log-format    Log format (text or json) (default: text)
  --version       Show version information

Examples:
  beacon fetch --config beacon.yaml
  beacon report --snapshot latest --format html
  beacon dash --snapshot latest
  beacon serve --addr :8080
  beacon list --limit 10

Use "beacon <command> --help" for more information about a command.`)
}
