// Package dash implements the dash command: browse a snapshot in an
// interactive terminal dashboard.
package dash

import (
	"flag"
	"fmt"
	"os"

	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/internal/storage"
	"github.com/joshsymonds/beacon/internal/ui"
	"github.com/joshsymonds/beacon/pkg/logger"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

// Options represents dash command options.
type Options struct {
	ConfigFile string
	Snapshot   string
	DataDir    string
}

// Run executes the dash command.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("dash", flag.ExitOnError)
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	fs.StringVar(&opts.Snapshot, "snapshot", "latest", "Snapshot directory or 'latest'")
	fs.StringVar(&opts.DataDir, "data-dir", "", "Data directory path (overrides config)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: beacon dash [options]

Browse a saved snapshot in an interactive terminal dashboard.

Keys: tab switches views, o/p/s cycle the org/priority/status filters,
r resets them, q quits.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  beacon dash
  beacon dash --snapshot data/snapshots/2024-01-15-120000-a1b2c3d4`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.ConfigFile != "" {
		validPath, err := pathutil.ValidateConfigPath(opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		opts.ConfigFile = validPath
	}

	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.DataDir != "" {
		cfg.Data.Dir = opts.DataDir
	}

	store := storage.NewStorageWithLogger(cfg.Data.Dir, logger.GetGlobalLogger())
	snap, err := store.LoadSnapshot(opts.Snapshot)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	return ui.Run(snap, cfg.API.AppURL)
}
