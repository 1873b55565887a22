// Package fetch implements the fetch command: authenticate against the
// findings API, pull accounts and findings, and save a local snapshot.
package fetch

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joshsymonds/beacon/internal/api"
	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/internal/database"
	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/internal/storage"
	"github.com/joshsymonds/beacon/pkg/logger"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

// Options represents fetch command options.
type Options struct {
	ConfigFile string
	DataDir    string
	Timeout    time.Duration
	NoHistory  bool
}

// Run executes the fetch command.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	fs.StringVar(&opts.DataDir, "data-dir", "", "Data directory path (overrides config)")
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "Overall fetch timeout")
	fs.BoolVar(&opts.NoHistory, "no-history", false, "Skip recording the fetch in the history database")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: beacon fetch [options]

Fetch accounts and findings from the API and save a snapshot.

Credentials come from `+config.EnvClientID+` and `+config.EnvClientSecret+`
(or from the config file).

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  beacon fetch
  beacon fetch --config beacon.yaml
  beacon fetch --data-dir /var/lib/beacon`)
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

	log := logger.GetGlobalLogger()

	client, err := api.NewClient(cfg.API, api.WithLogger(log))
	if err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			return err
		}
		return fmt.Errorf("creating API client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	log.Info("Fetching accounts and findings", "base_url", cfg.API.BaseURL)
	snap, err := client.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	store := storage.NewStorageWithLogger(cfg.Data.Dir, log)
	dir, err := store.SaveSnapshot(snap)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	log.Info("Snapshot saved",
		"path", dir,
		"accounts", len(snap.Accounts),
		"findings", len(snap.Findings),
		"permission_denied", snap.PermissionDenied)

	if !opts.NoHistory {
		if err := recordHistory(ctx, cfg.Data.Dir, snap, dir); err != nil {
			// History is an index over snapshots, not the source of truth.
			log.Warn("Could not record fetch history", "error", err)
		}
	}

	log.Info("💡 Use 'beacon report' or 'beacon dash' to view the snapshot")
	return nil
}

// recordHistory appends the fetch to the sqlite ledger next to the snapshots.
func recordHistory(ctx context.Context, dataDir string, snap *models.Snapshot, snapshotDir string) error {
	db, err := database.New(filepath.Join(dataDir, "beacon.db"))
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := db.RecordFetch(ctx, database.NewFetchRecord(snap, snapshotDir)); err != nil {
		return fmt.Errorf("recording fetch: %w", err)
	}
	return nil
}
