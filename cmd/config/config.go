// Package config implements the config command for validating beacon
// configuration files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

// Run executes the config command.
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: validate")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "validate":
		return runValidate(subArgs)
	default:
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
}

func runValidate(args []string) error {
	var configFile string

	fs := flag.NewFlagSet("config validate", flag.ExitOnError)
	fs.StringVar(&configFile, "config", "", "Configuration file to validate (required)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: beacon config validate [options]

Validate a beacon configuration file.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  beacon config validate --config beacon.yaml`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if configFile == "" {
		return fmt.Errorf("--config flag is required")
	}
	validPath, err := pathutil.ValidateConfigPath(configFile)
	if err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}
	configFile = validPath

	fmt.Printf("🔍 Validating configuration: %s\n\n", configFile)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	printValidationResults(cfg)

	fmt.Println("\n✅ Configuration is valid!")
	return nil
}

func printValidationResults(cfg *config.Config) {
	fmt.Println("🌐 API Configuration:")
	fmt.Printf("   Auth URL: %s\n", cfg.API.AuthURL)
	fmt.Printf("   Base URL: %s\n", cfg.API.BaseURL)
	fmt.Printf("   App URL:  %s\n", cfg.API.AppURL)
	fmt.Printf("   Audience: %s\n", cfg.API.Audience)
	fmt.Printf("   Timeout:  %s\n", cfg.API.Timeout)

	if _, _, err := cfg.API.Credentials(); err == nil {
		fmt.Println("   Credentials: configured")
	} else if errors.Is(err, config.ErrMissingCredentials) {
		fmt.Printf("   Credentials: ⚠️  not set (export %s and %s before fetching)\n",
			config.EnvClientID, config.EnvClientSecret)
	}

	fmt.Println("\n🖥️  Server Configuration:")
	fmt.Printf("   Address: %s\n", cfg.Server.Addr)
	if len(cfg.Server.AllowedOrigins) > 0 {
		fmt.Printf("   Allowed Origins: %s\n", strings.Join(cfg.Server.AllowedOrigins, ", "))
	} else {
		fmt.Println("   Allowed Origins: * (default)")
	}

	fmt.Println("\n📊 Report Configuration:")
	fmt.Printf("   Output Directory: %s\n", cfg.Report.OutputDir)
	fmt.Printf("   Title: %s\n", cfg.Report.Title)

	fmt.Println("\n💾 Data Configuration:")
	fmt.Printf("   Directory: %s\n", cfg.Data.Dir)
}
